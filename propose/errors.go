package propose

import "github.com/pkg/errors"

// ErrInsufficientTransactions is returned when a gathered block falls
// below Policy.MinTransactionsPerBlock (spec.md §4.C "Failure
// conditions": the gatherer itself never enforces this; the Proposer
// does).
var ErrInsufficientTransactions = errors.New("propose: insufficient transactions for a block")
