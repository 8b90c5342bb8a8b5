// Package sizeest implements SizeEstimator (spec.md §4.B): an
// incremental lower bound on the encoded block size as transactions are
// appended, built on top of the BlockCodec's own encoding primitives.
package sizeest

import (
	"forge/chain"
)

// Estimator maintains an encoded-size proxy for a block under
// construction. Guarantee: for the same metadata and any transaction
// sequence S, Length(fold(Append, Empty, S)) equals the byte length the
// real encoder would produce for a block with those transactions and a
// header of the same placeholder shape (spec.md §4.B).
type Estimator struct {
	codec chain.BlockCodec
}

// NewEstimator constructs an Estimator over the given codec.
func NewEstimator(codec chain.BlockCodec) *Estimator {
	return &Estimator{codec: codec}
}

// Empty builds the initial encoding for metadata with zero transactions.
func (e *Estimator) Empty(meta chain.BlockMetadata) chain.Encoding {
	return e.codec.EmptyEncoding(meta)
}

// Append returns a new encoding with tx appended to the transaction list.
func (e *Estimator) Append(enc chain.Encoding, tx chain.Transaction) chain.Encoding {
	return e.codec.AppendEncoding(enc, tx)
}

// Length returns the encoded byte length of enc.
func (e *Estimator) Length(enc chain.Encoding) int {
	return e.codec.EncodingLength(enc)
}
