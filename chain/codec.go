package chain

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// PlaceholderSignatureSize is the worst-case DER-encoded ECDSA signature
// length for the scheme this codec's header shape assumes. Treated as a
// codec-supplied constant (Design Notes) so that codec changes don't
// silently invalidate SizeEstimator's bounds.
const PlaceholderSignatureSize = 71

// Encoding is the incremental encoded-size accumulator SizeEstimator
// folds transactions into. It carries enough of the real encoding to
// reproduce the final PreEvaluationHash once mining succeeds.
type Encoding struct {
	Metadata     BlockMetadata
	Transactions []Transaction
	length       int
}

// BlockCodec is the external collaborator providing marshal/hash
// primitives for metadata, headers, transactions, and blocks. The core
// never depends on a concrete wire format beyond this interface.
type BlockCodec interface {
	// DigestSize is the byte width of a hash produced by Hash.
	DigestSize() int
	// Hash returns the digest of data.
	Hash(data []byte) Hash32
	// EmptyEncoding builds the initial encoding for a block with zero
	// transactions: the metadata is real, all other header fields use
	// worst-case placeholders.
	EmptyEncoding(meta BlockMetadata) Encoding
	// AppendEncoding returns a new encoding with tx appended.
	AppendEncoding(enc Encoding, tx Transaction) Encoding
	// EncodingLength returns the encoded byte length of enc.
	EncodingLength(enc Encoding) int
	// PreEvaluationHash hashes metadata + transactions + nonce.
	PreEvaluationHash(content BlockContent, nonce uint64) Hash32
	// MerkleRoot returns the merkle root of a transaction list.
	MerkleRoot(txs []Transaction) Hash32
}

// DefaultCodec is the reference BlockCodec: blake2b-256 for block/header
// digests (the ecosystem's usual choice for new proof-of-work hash work),
// sha256 for transaction identity (a stable legacy format, grounded in
// blockchain/crypto.go's HashTransaction, unrelated to the PoW target).
type DefaultCodec struct{}

// NewDefaultCodec constructs the reference codec.
func NewDefaultCodec() *DefaultCodec { return &DefaultCodec{} }

func (c *DefaultCodec) DigestSize() int { return blake2b.Size256 }

func (c *DefaultCodec) Hash(data []byte) Hash32 {
	return blake2b.Sum256(data)
}

func uint64Bytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// headerLength computes the byte length of the fixed-shape header: the
// real fields (index, difficulty, total difficulty digest, timestamp),
// the public key plus a placeholder signature when a public key is
// present, the previous hash when present, zeroed digest-width fields
// for state root, hash and pre-evaluation hash, and an 8-byte nonce.
func (c *DefaultCodec) headerLength(meta BlockMetadata) int {
	n := 8 /* index */ + 8 /* difficulty */ + c.DigestSize() /* total difficulty */ + 8 /* timestamp */
	if meta.PublicKey != nil {
		n += len(*meta.PublicKey) + PlaceholderSignatureSize
	}
	if meta.PreviousHash != nil {
		n += c.DigestSize()
	}
	n += c.DigestSize() /* state root */
	n += c.DigestSize() /* hash */
	n += 8              /* nonce */
	n += c.DigestSize() /* pre-evaluation hash */
	return n
}

func (c *DefaultCodec) EmptyEncoding(meta BlockMetadata) Encoding {
	return Encoding{Metadata: meta, length: c.headerLength(meta)}
}

func (c *DefaultCodec) AppendEncoding(enc Encoding, tx Transaction) Encoding {
	txs := make([]Transaction, len(enc.Transactions), len(enc.Transactions)+1)
	copy(txs, enc.Transactions)
	txs = append(txs, tx)
	return Encoding{
		Metadata:     enc.Metadata,
		Transactions: txs,
		length:       enc.length + tx.Size,
	}
}

func (c *DefaultCodec) EncodingLength(enc Encoding) int { return enc.length }

func (c *DefaultCodec) PreEvaluationHash(content BlockContent, nonce uint64) Hash32 {
	h, _ := blake2b.New256(nil)
	meta := content.Metadata
	h.Write(uint64Bytes(meta.Index))
	h.Write(uint64Bytes(meta.Difficulty))
	if meta.TotalDifficulty != nil {
		h.Write(meta.TotalDifficulty.Bytes())
	}
	if meta.PublicKey != nil {
		h.Write(meta.PublicKey[:])
	}
	if meta.PreviousHash != nil {
		h.Write(meta.PreviousHash[:])
	}
	h.Write(uint64Bytes(uint64(meta.Timestamp.UnixNano())))
	merkle := c.MerkleRoot(content.Transactions)
	h.Write(merkle[:])
	h.Write(uint64Bytes(nonce))
	var out Hash32
	copy(out[:], h.Sum(nil))
	return out
}

// MerkleRoot builds a binary merkle tree over transaction IDs, duplicating
// the last hash at odd levels, per blockchain/crypto.go's MerkleTransactions.
func (c *DefaultCodec) MerkleRoot(txs []Transaction) Hash32 {
	if len(txs) == 0 {
		return Hash32{}
	}
	level := make([][]byte, len(txs))
	for i := range txs {
		level[i] = txs[i].ID[:]
	}
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			h := sha256.New()
			h.Write(level[i])
			h.Write(level[i+1])
			next = append(next, h.Sum(nil))
		}
		level = next
	}
	var root Hash32
	copy(root[:], level[0])
	return root
}

// HashTransaction computes the stable legacy sha256 content-hash identity
// for a transaction, grounded in blockchain/crypto.go's HashTransaction.
func HashTransaction(signer Address, nonce uint64, timestamp int64, payload []byte) TxID {
	h := sha256.New()
	h.Write(signer[:])
	h.Write(uint64Bytes(nonce))
	h.Write(uint64Bytes(uint64(timestamp)))
	h.Write(payload)
	var id TxID
	copy(id[:], h.Sum(nil))
	return id
}
