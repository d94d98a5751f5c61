package blockchain

// These constants are used to identify a specific RuleError.
var (
	// ErrNoTransactionsToMine indicates that mining was requested while the
	// pending pool is empty.
	ErrNoTransactionsToMine = newRuleError("ErrNoTransactionsToMine")

	// ErrInvalidDifficulty indicates a difficulty outside of [0, 64].
	ErrInvalidDifficulty = newRuleError("ErrInvalidDifficulty")

	// ErrBlockHashMismatch indicates a block whose stored hash differs from
	// the hash of its content.
	ErrBlockHashMismatch = newRuleError("ErrBlockHashMismatch")

	// ErrPreviousHashMismatch indicates a block that does not link to the
	// hash of the block before it.
	ErrPreviousHashMismatch = newRuleError("ErrPreviousHashMismatch")

	// ErrInvalidTransactionSignature indicates a block containing a
	// transaction whose signature does not verify.
	ErrInvalidTransactionSignature = newRuleError("ErrInvalidTransactionSignature")
)

// RuleError identifies a rule violation. The caller can use errors.Is with
// the values above to determine which rule failed.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}
