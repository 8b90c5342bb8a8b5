// Package fixtures provides deterministic test data — keypairs and
// signed transactions — grounded on testing/generator.go's TestAccount
// and GenerateValidTransaction, adapted to forge's chain types and
// transfer-payload convention.
package fixtures

import (
	"crypto/ed25519"
	"time"

	"forge/chain"
	"forge/evaluate"
)

// Account holds a complete ed25519 key pair for test use.
type Account struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// Address returns the chain.Address form of the account's public key.
func (a Account) Address() chain.Address {
	var addr chain.Address
	copy(addr[:], a.PublicKey)
	return addr
}

// FirstUserSeed is a fixed seed so the "first user" keypair is stable
// across test runs, grounded on GetFirstUserTestAccount's fixed seed.
var FirstUserSeed = [32]byte{
	0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0,
	0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88,
	0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x00, 0x11,
	0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99,
}

// FirstUser returns the deterministic "first user" test account.
func FirstUser() Account {
	priv := ed25519.NewKeyFromSeed(FirstUserSeed[:])
	return Account{PrivateKey: priv, PublicKey: priv.Public().(ed25519.PublicKey)}
}

// Accounts returns n deterministic test accounts, seeded off
// FirstUserSeed so a given n always produces the same keys.
func Accounts(n int) []Account {
	out := make([]Account, n)
	for i := 0; i < n; i++ {
		seed := FirstUserSeed
		seed[31] ^= byte(i)
		seed[30] ^= byte(i >> 8)
		priv := ed25519.NewKeyFromSeed(seed[:])
		out[i] = Account{PrivateKey: priv, PublicKey: priv.Public().(ed25519.PublicKey)}
	}
	return out
}

// Transfer builds and signs a transfer transaction from from to to for
// amount at nonce, stamped at timestamp. The transaction ID is the
// codec's stable content hash; the signature covers that ID, matching
// policy.Default.ValidateNextBlockTx's verification convention.
func Transfer(from Account, to chain.Address, amount, nonce uint64, timestamp time.Time) chain.Transaction {
	signer := from.Address()
	payload := evaluate.EncodeTransfer(to, amount)
	id := chain.HashTransaction(signer, nonce, timestamp.UnixNano(), payload)
	sig := ed25519.Sign(from.PrivateKey, id[:])

	tx := chain.Transaction{
		ID:        id,
		Signer:    signer,
		Nonce:     nonce,
		Timestamp: timestamp,
		Payload:   payload,
	}
	copy(tx.Signature[:], sig)
	tx.Size = transactionSize(tx)
	return tx
}

// Coinbase builds an unsigned coinbase transaction crediting to with
// amount, the zero Address acting as the sentinel coinbase signer.
func Coinbase(to chain.Address, amount uint64, nonce uint64, timestamp time.Time) chain.Transaction {
	var signer chain.Address
	payload := evaluate.EncodeTransfer(to, amount)
	id := chain.HashTransaction(signer, nonce, timestamp.UnixNano(), payload)

	tx := chain.Transaction{
		ID:        id,
		Signer:    signer,
		Nonce:     nonce,
		Timestamp: timestamp,
		Payload:   payload,
	}
	tx.Size = transactionSize(tx)
	return tx
}

// transactionSize is the encoded byte footprint SizeEstimator assumes
// per transaction: fixed-width fields plus the payload bytes.
func transactionSize(tx chain.Transaction) int {
	return len(tx.ID) + len(tx.Signer) + 8 /* nonce */ + 8 /* timestamp */ + len(tx.Signature) + len(tx.Payload)
}
