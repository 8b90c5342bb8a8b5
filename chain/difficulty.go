package chain

import "math/big"

// TotalDifficulty is the cumulative proof-of-work weight from genesis
// through a block, inclusive. Kept as *big.Int end-to-end: unlike the
// teacher's JSON-serialized header, BlockMetadata here is ephemeral
// in-process state, so there is no boundary forcing a string form.
type TotalDifficulty = big.Int

// maxTarget is 2^256 - 1, the ceiling a difficulty-1 target divides.
var maxTarget = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// WorkForDifficulty returns the amount of work represented by a given
// difficulty: work = maxTarget / (maxTarget / difficulty).
func WorkForDifficulty(difficulty uint64) *big.Int {
	if difficulty == 0 {
		return big.NewInt(0)
	}
	target := new(big.Int).Div(maxTarget, new(big.Int).SetUint64(difficulty))
	return new(big.Int).Div(maxTarget, target)
}

// AddWork returns a new total equal to prev + work.
func AddWork(prev *TotalDifficulty, work *big.Int) *TotalDifficulty {
	base := new(big.Int)
	if prev != nil {
		base.Set(prev)
	}
	return new(big.Int).Add(base, work)
}

// MeetsDifficulty reports whether hash has at least `difficulty` leading
// zero bits, per the codec's convention (spec.md §4.D).
func MeetsDifficulty(hash Hash32, difficulty uint64) bool {
	leadingZeros := 0
	for _, b := range hash {
		if b == 0 {
			leadingZeros += 8
			continue
		}
		for i := 7; i >= 0; i-- {
			if (b >> uint(i)) == 0 {
				leadingZeros++
			} else {
				break
			}
		}
		break
	}
	return uint64(leadingZeros) >= difficulty
}

const (
	// RecalculationFrequency is the block-count window between
	// difficulty retargets, carried over from blockchain/difficulty.go.
	RecalculationFrequency = 2016
	// TargetBlockInterval is the desired average seconds between blocks
	// within a retarget window.
	TargetBlockInterval = 10 * 60
)
