package main

import (
	"fmt"

	"github.com/kaspanet/ledgersim/domain/wallet"
)

func walletCreate(conf *walletCreateConfig) error {
	var w *wallet.Wallet
	var err error
	switch {
	case conf.Import != "":
		w, err = wallet.FromMnemonic(conf.Name, conf.Import, "")
	case conf.Mnemonic:
		var mnemonic string
		mnemonic, err = wallet.NewMnemonic()
		if err != nil {
			return err
		}
		fmt.Printf("Mnemonic (write it down, it restores the wallet):\n%s\n\n", mnemonic)
		w, err = wallet.FromMnemonic(conf.Name, mnemonic, "")
	default:
		w, err = wallet.New(conf.Name)
	}
	if err != nil {
		return err
	}

	password, err := resolvePassword(conf.Password, true)
	if err != nil {
		return err
	}
	keyFile, err := w.NewKeyFile(password)
	if err != nil {
		return err
	}
	err = wallet.WriteKeyFile(conf.KeyFile, keyFile, conf.Overwrite)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote key file %s\n", conf.KeyFile)
	printWallet(w, false)
	return nil
}

func walletShow(conf *walletShowConfig) error {
	keyFile, err := wallet.ReadKeyFile(conf.KeyFile)
	if err != nil {
		return err
	}
	password, err := resolvePassword(conf.Password, false)
	if err != nil {
		return err
	}
	w, err := keyFile.Decrypt(password)
	if err != nil {
		return err
	}

	printWallet(w, conf.ShowPrivate)
	return nil
}

func printWallet(w *wallet.Wallet, showPrivate bool) {
	info := w.Info()
	fmt.Printf("Name:        %s\n", info.Name)
	fmt.Printf("Fingerprint: %s\n", w.Fingerprint())
	fmt.Printf("Address:     %s\n", info.Address)
	fmt.Printf("Public key:  %s\n", info.PublicKey)
	if showPrivate {
		fmt.Printf("Private key: %s\n", info.PrivateKey)
	}
}
