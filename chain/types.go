// Package chain defines the data model shared by every component of the
// block proposal core: addresses, transactions, block metadata, and the
// staged intermediate forms a proposal passes through on its way to a
// mined block.
package chain

import (
	"crypto/ed25519"
	"time"
)

// Hash32 is a 32-byte digest, the concrete type BlockCodec produces.
type Hash32 [32]byte

// Address is a fixed-width identifier derived from a public key.
type Address [ed25519.PublicKeySize]byte

// Signature is a fixed-width ed25519 signature.
type Signature [ed25519.SignatureSize]byte

// TxID identifies a Transaction by content hash.
type TxID = Hash32

// Transaction is a signed, opaque-to-the-core unit of work. Immutable once
// created; action interpretation is left entirely to an ActionEvaluator.
type Transaction struct {
	ID        TxID
	Signer    Address
	Nonce     uint64
	Timestamp time.Time
	Size      int
	Signature Signature

	// Payload is the opaque action body. The core never inspects it.
	Payload []byte
}

// BlockMetadata is the ephemeral header produced by BlockMetadataBuilder.
// Discarded if mining aborts; never persisted on its own.
type BlockMetadata struct {
	Index           uint64
	Difficulty      uint64
	TotalDifficulty *TotalDifficulty
	PublicKey       *Address // proposer key, absent in legacy genesis
	PreviousHash    *Hash32  // absent iff Index == 0
	Timestamp       time.Time
}

// BlockContent is a metadata header paired with its fixed-order
// transaction list. The order is the gatherer's output order and is
// fixed for hashing.
type BlockContent struct {
	Metadata     BlockMetadata
	Transactions []Transaction
}

// PreEvaluationBlock is a BlockContent plus the winning nonce and the
// hash that satisfies the difficulty target. State root is not yet set.
type PreEvaluationBlock struct {
	Content            BlockContent
	Nonce              uint64
	PreEvaluationHash  Hash32
}

// Block is a PreEvaluationBlock plus post-evaluation state and identity.
// Fully immutable once constructed.
type Block struct {
	PreEvaluation  PreEvaluationBlock
	StateRootHash  Hash32
	Signature      *Signature
	Hash           Hash32
}

// Metadata is a convenience accessor for the block's metadata header.
func (b *Block) Metadata() BlockMetadata { return b.PreEvaluation.Content.Metadata }

// Transactions is a convenience accessor for the block's transaction list.
func (b *Block) Transactions() []Transaction { return b.PreEvaluation.Content.Transactions }
