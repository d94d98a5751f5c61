package tangle

import "github.com/pkg/errors"

var (
	// ErrInvalidTipCount indicates a request to approve fewer than one tip.
	ErrInvalidTipCount = errors.New("a transaction must approve at least one tip")

	// ErrDuplicateTransaction indicates an insertion whose hash is already
	// part of the tangle.
	ErrDuplicateTransaction = errors.New("transaction is already in the tangle")
)
