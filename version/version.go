// Package version reports the version of the ledgersim binaries.
package version

import (
	"fmt"
	"strings"
	"sync"
)

// buildCharacters lists the characters allowed in the build metadata.
const buildCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

const (
	major uint = 0
	minor uint = 3
	patch uint = 0
)

// build can be set with
// '-ldflags "-X github.com/kaspanet/ledgersim/version.build=foo"'.
// Metadata containing characters outside buildCharacters is ignored.
var build string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the semantic version, followed by the build metadata if
// there is any.
func Version() string {
	versionOnce.Do(func() {
		version = format(major, minor, patch, build)
	})
	return version
}

func format(major, minor, patch uint, build string) string {
	base := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if !isValidBuild(build) {
		return base
	}
	return base + "+" + build
}

func isValidBuild(build string) bool {
	if build == "" {
		return false
	}
	for _, r := range build {
		if !strings.ContainsRune(buildCharacters, r) {
			return false
		}
	}
	return true
}
