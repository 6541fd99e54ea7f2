package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrWalletNotFound indicates that a wallet lookup did not match any
	// wallet in the store.
	ErrWalletNotFound = newRuleError("ErrWalletNotFound")

	// ErrWalletAlreadyExists indicates an attempt to create a wallet for a
	// public key or address that is already indexed.
	ErrWalletAlreadyExists = newRuleError("ErrWalletAlreadyExists")

	// ErrMissingForgerWallet indicates that the generator of a non-genesis
	// block has no wallet.
	ErrMissingForgerWallet = newRuleError("ErrMissingForgerWallet")

	// ErrForgerNotDelegate indicates that a block generator wallet is not a
	// registered delegate.
	ErrForgerNotDelegate = newRuleError("ErrForgerNotDelegate")

	ErrMissingLastBlock = newRuleError("ErrMissingLastBlock")

	// ErrUnknownTransactionType indicates that no handler is registered
	// for the type group, type and version of a transaction.
	ErrUnknownTransactionType = newRuleError("ErrUnknownTransactionType")

	// ErrInsufficientBalance indicates that applying a transaction would
	// leave its sender with a negative balance.
	ErrInsufficientBalance = newRuleError("ErrInsufficientBalance")

	// ErrUnexpectedNonce indicates that a transaction nonce is not the
	// successor of its sender's nonce.
	ErrUnexpectedNonce = newRuleError("ErrUnexpectedNonce")

	ErrMissingAsset = newRuleError("ErrMissingAsset")

	ErrUsernameAlreadyRegistered = newRuleError("ErrUsernameAlreadyRegistered")

	ErrAlreadyDelegate = newRuleError("ErrAlreadyDelegate")

	ErrAlreadyVoted = newRuleError("ErrAlreadyVoted")

	ErrNoVote = newRuleError("ErrNoVote")

	// ErrVoteMismatch indicates an unvote for a delegate other than the
	// one the sender currently votes for.
	ErrVoteMismatch = newRuleError("ErrVoteMismatch")

	ErrVoteForNonDelegate = newRuleError("ErrVoteForNonDelegate")

	// ErrLockNotFound indicates that an HTLC claim or refund references a
	// lock that does not exist.
	ErrLockNotFound = newRuleError("ErrLockNotFound")

	ErrLockAlreadyExists = newRuleError("ErrLockAlreadyExists")

	// ErrInvalidUnlockSecret indicates that the secret of an HTLC claim does
	// not hash to the lock's secret hash.
	ErrInvalidUnlockSecret = newRuleError("ErrInvalidUnlockSecret")

	ErrLockExpired = newRuleError("ErrLockExpired")

	ErrLockNotExpired = newRuleError("ErrLockNotExpired")

	ErrMissingRecipient = newRuleError("ErrMissingRecipient")

	// ErrAmountOverflow indicates that the amounts of a transaction sum to
	// more than a single amount can hold.
	ErrAmountOverflow = newRuleError("ErrAmountOverflow")

	// ErrNoActiveDelegates indicates that a round resolved to an empty
	// active delegate list.
	ErrNoActiveDelegates = newRuleError("ErrNoActiveDelegates")

	// ErrNoMilestones indicates that the chain configuration carries no
	// active delegates milestone at height 1.
	ErrNoMilestones = newRuleError("ErrNoMilestones")
)

// RuleError identifies a violation of a ledger rule. It is used to
// indicate that applying or reverting a block or transaction failed. The
// caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
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

// ErrLedgerCorrupted indicates that a failed block apply or revert could
// not be compensated, leaving the ledger in an undefined state.
type ErrLedgerCorrupted struct {
	BlockID       string
	Cause         error
	RollbackError error
}

func (e ErrLedgerCorrupted) Error() string {
	return fmt.Sprintf("block %s: %s; compensation failed: %s", e.BlockID, e.Cause, e.RollbackError)
}

// NewErrLedgerCorrupted creates a new ErrLedgerCorrupted error wrapped in a RuleError
func NewErrLedgerCorrupted(blockID string, cause error, rollbackError error) error {
	return errors.WithStack(RuleError{
		message: "ErrLedgerCorrupted",
		inner:   ErrLedgerCorrupted{BlockID: blockID, Cause: cause, RollbackError: rollbackError},
	})
}

// IsLedgerCorrupted returns whether err carries an ErrLedgerCorrupted
func IsLedgerCorrupted(err error) bool {
	var corrupted ErrLedgerCorrupted
	return errors.As(err, &corrupted)
}

// ErrTransactionFailed wraps the failure of a single transaction inside a block.
type ErrTransactionFailed struct {
	TransactionID string
	Err           error
}

func (e ErrTransactionFailed) Error() string {
	return fmt.Sprintf("transaction %s: %s", e.TransactionID, e.Err)
}

// Unwrap satisfies the errors.Unwrap interface
func (e ErrTransactionFailed) Unwrap() error {
	return e.Err
}

// NewErrTransactionFailed creates a new ErrTransactionFailed error wrapped in a RuleError
func NewErrTransactionFailed(transactionID string, err error) error {
	return errors.WithStack(RuleError{
		message: "ErrTransactionFailed",
		inner:   ErrTransactionFailed{TransactionID: transactionID, Err: err},
	})
}
