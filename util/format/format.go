// Package format renders ledger values for people.
package format

import (
	"fmt"

	"github.com/kaspanet/ledgersim/util/mstime"
)

const timestampLayout = "2006-01-02 15:04:05"

// TimestampToString renders a timestamp given in seconds since the unix
// epoch as local date and time.
func TimestampToString(seconds float64) string {
	return mstime.SecondsToTime(seconds).Format(timestampLayout)
}

// FormatAmount renders an amount with two decimals.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// ShortHash returns the first n characters of hash, or hash itself when it
// is shorter.
func ShortHash(hash string, n int) string {
	if len(hash) <= n {
		return hash
	}
	return hash[:n]
}
