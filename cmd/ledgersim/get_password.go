package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// getPassword was adapted from https://gist.github.com/jlinoff/e8e26b4ffa38d379c7f1891fd174a6d0#file-getpassword2-go
func getPassword(prompt string) ([]byte, error) {
	stdin := int(syscall.Stdin)
	if !term.IsTerminal(stdin) {
		return nil, errors.New("standard input is not a terminal, use --password")
	}

	// Get the initial state of the terminal.
	initialTermState, err := term.GetState(stdin)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Restore it in the event of an interrupt.
	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, os.Interrupt)
	defer signal.Stop(interruptChannel)
	done := make(chan struct{})
	defer close(done)
	spawn("getPassword-restoreTerminal", func() {
		select {
		case <-interruptChannel:
			_ = term.Restore(stdin, initialTermState)
			os.Exit(1)
		case <-done:
		}
	})

	fmt.Print(prompt)
	password, err := term.ReadPassword(stdin)
	fmt.Println()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return password, nil
}

// resolvePassword returns the flag value if given, and prompts for the
// password otherwise. confirm asks for the password twice.
func resolvePassword(flagValue string, confirm bool) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}

	password, err := getPassword("Enter password for the key file: ")
	if err != nil {
		return nil, err
	}
	if !confirm {
		return password, nil
	}

	confirmation, err := getPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if string(password) != string(confirmation) {
		return nil, errors.New("passwords are not identical")
	}
	return password, nil
}
