package format

import (
	"testing"
	"time"

	"github.com/kaspanet/ledgersim/util/mstime"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{0, "0.00"},
		{1, "1.00"},
		{12.345, "12.35"},
		{-3.5, "-3.50"},
	}
	for _, test := range tests {
		if got := FormatAmount(test.amount); got != test.expected {
			t.Errorf("FormatAmount(%f): expected %s, got %s", test.amount, test.expected, got)
		}
	}
}

func TestTimestampToString(t *testing.T) {
	tm := time.Date(2021, time.March, 4, 5, 6, 7, 0, time.Local)
	got := TimestampToString(mstime.TimeToSeconds(tm))
	if got != "2021-03-04 05:06:07" {
		t.Fatalf("TimestampToString: unexpected %s", got)
	}
}

func TestShortHash(t *testing.T) {
	if ShortHash("abcdef", 4) != "abcd" {
		t.Fatalf("ShortHash did not truncate")
	}
	if ShortHash("ab", 4) != "ab" {
		t.Fatalf("ShortHash changed a short hash")
	}
}
