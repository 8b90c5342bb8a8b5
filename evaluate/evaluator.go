// Package evaluate provides the reference ActionEvaluator (spec.md §6):
// the external collaborator that turns a mined PreEvaluationBlock into a
// finalized Block plus a per-transaction evaluation trail, grounded on
// blockchain/validation.go's validateAndApplyTransaction balance-transfer
// logic. By the time a transaction reaches here it has already passed
// Policy.ValidateNextBlockTx (signature, sender existence) and the
// gatherer's nonce-continuity check, so Evaluate
// only applies the transfer and records the outcome.
package evaluate

import (
	"encoding/binary"

	"github.com/gofrs/uuid"

	"forge/chain"
	"forge/policy"
)

// ActionEvaluation records the outcome of applying one transaction's
// action during block evaluation (spec.md §6 "ActionEvaluator").
type ActionEvaluation struct {
	ID     uuid.UUID
	TxID   chain.TxID
	Signer chain.Address
	Nonce  uint64

	Success bool
	Detail  string
}

// State is the account-balance view an ActionEvaluator applies actions
// against. store.Memory satisfies this interface.
type State interface {
	Account(addr chain.Address) (policy.AccountState, bool)
	SetAccount(addr chain.Address, state policy.AccountState)
}

// ActionEvaluator is the external collaborator consumed by Proposer
// (spec.md §6).
type ActionEvaluator interface {
	Evaluate(pre *chain.PreEvaluationBlock, proposerKey *chain.Address, handle chain.ChainHandle) (chain.Block, []ActionEvaluation, error)
}

// coinbase is the zero Address, the same sentinel policy.Default treats
// as a fee-free credit-only source.
var coinbase chain.Address

// transferAddressLen and transferAmountLen describe the only payload
// shape this reference evaluator understands: a fixed-width recipient
// address followed by a big-endian amount. The core itself never
// inspects Payload; this layout is local to this collaborator.
const (
	transferAddressLen = len(chain.Address{})
	transferAmountLen  = 8
	transferPayloadLen = transferAddressLen + transferAmountLen
)

// EncodeTransfer builds a payload for a transfer of amount to to,
// understood by DecodeTransfer.
func EncodeTransfer(to chain.Address, amount uint64) []byte {
	buf := make([]byte, transferPayloadLen)
	copy(buf, to[:])
	binary.BigEndian.PutUint64(buf[transferAddressLen:], amount)
	return buf
}

// DecodeTransfer extracts a recipient and amount from a transfer
// payload, reporting false if payload is too short to hold one.
func DecodeTransfer(payload []byte) (chain.Address, uint64, bool) {
	if len(payload) < transferPayloadLen {
		return chain.Address{}, 0, false
	}
	var to chain.Address
	copy(to[:], payload[:transferAddressLen])
	amount := binary.BigEndian.Uint64(payload[transferAddressLen : transferAddressLen+transferAmountLen])
	return to, amount, true
}

// Default is the reference ActionEvaluator: single-asset balance
// transfers with a coinbase credit-only special case.
type Default struct {
	State State
	Codec chain.BlockCodec
}

// NewDefault constructs a Default evaluator over the given state and
// codec.
func NewDefault(state State, codec chain.BlockCodec) *Default {
	return &Default{State: state, Codec: codec}
}

// Evaluate applies every transaction in pre's content in order, then
// derives a StateRootHash and block identity hash. Never returns an
// error itself: per-transaction failures are recorded in the returned
// evaluations rather than aborting the block, matching the teacher's
// per-transaction accept/reject loop.
func (d *Default) Evaluate(pre *chain.PreEvaluationBlock, proposerKey *chain.Address, handle chain.ChainHandle) (chain.Block, []ActionEvaluation, error) {
	evals := make([]ActionEvaluation, 0, len(pre.Content.Transactions))
	for _, tx := range pre.Content.Transactions {
		evals = append(evals, d.apply(tx))
	}

	root := d.stateRootHash(evals)
	block := chain.Block{
		PreEvaluation: *pre,
		StateRootHash: root,
		Hash:          d.blockHash(pre, root),
	}
	return block, evals, nil
}

func (d *Default) apply(tx chain.Transaction) ActionEvaluation {
	eval := ActionEvaluation{TxID: tx.ID, Signer: tx.Signer, Nonce: tx.Nonce}
	if id, err := uuid.NewV4(); err == nil {
		eval.ID = id
	}

	to, amount, ok := DecodeTransfer(tx.Payload)
	if !ok {
		eval.Detail = "malformed transfer payload"
		return eval
	}

	if tx.Signer == coinbase {
		d.credit(to, amount)
		eval.Success = true
		eval.Detail = "coinbase"
		return eval
	}

	from, exists := d.State.Account(tx.Signer)
	if !exists {
		eval.Detail = "sender account does not exist"
		return eval
	}
	if from.Balance < amount {
		eval.Detail = "insufficient balance"
		return eval
	}

	from.Balance -= amount
	from.Nonce = tx.Nonce + 1
	d.State.SetAccount(tx.Signer, from)
	d.credit(to, amount)

	eval.Success = true
	eval.Detail = "applied"
	return eval
}

func (d *Default) credit(addr chain.Address, amount uint64) {
	acct, _ := d.State.Account(addr)
	acct.Balance += amount
	d.State.SetAccount(addr, acct)
}

// stateRootHash folds the evaluation outcomes of this block into a
// single digest: same transaction list and same outcomes always produce
// the same root.
func (d *Default) stateRootHash(evals []ActionEvaluation) chain.Hash32 {
	buf := make([]byte, 0, len(evals)*(transferAddressLen+len(chain.Hash32{})+1))
	for _, e := range evals {
		buf = append(buf, e.Signer[:]...)
		buf = append(buf, e.TxID[:]...)
		if e.Success {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return d.Codec.Hash(buf)
}

func (d *Default) blockHash(pre *chain.PreEvaluationBlock, root chain.Hash32) chain.Hash32 {
	buf := make([]byte, 0, len(pre.PreEvaluationHash)+len(root)+8)
	buf = append(buf, pre.PreEvaluationHash[:]...)
	buf = append(buf, root[:]...)
	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, pre.Nonce)
	buf = append(buf, nonceBytes...)
	return d.Codec.Hash(buf)
}
