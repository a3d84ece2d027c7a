package assemblifier

import "fmt"

// LastNext is the successor pointer stored in the last record. It points
// back at slot 0, so a traversal is bounded by the record count rather than
// by a terminator.
const LastNext = 0

// Shuffler is a source of random permutations. *rand.Rand implements it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Link assigns every record a random physical slot, keeping the first record
// at slot 0, and packs each record together with the slot of its logical
// successor. It returns the packed words in physical order and the slot of
// each logical record.
func Link(records []Record, rng Shuffler) ([]uint64, []uint32) {
	n := len(records)
	if n == 0 {
		return nil, nil
	}

	slots := make([]uint32, n)
	for i := 1; i < n; i++ {
		slots[i] = uint32(i)
	}

	rng.Shuffle(n-1, func(i, j int) {
		slots[i+1], slots[j+1] = slots[j+1], slots[i+1]
	})

	words := make([]uint64, n)
	for i, rec := range records {
		next := uint32(LastNext)
		if i+1 < n {
			next = slots[i+1]
		}

		words[slots[i]] = Pack(rec, next)
	}

	return words, slots
}

// Walk follows the successor pointers from slot 0 and returns the records in
// logical order. It fails if a pointer leaves the array, a slot is visited
// twice, or the last record does not point to LastNext.
func Walk(words []uint64) ([]Record, error) {
	n := uint64(len(words))
	seen := make([]bool, n)
	records := make([]Record, 0, n)

	var slot uint32
	for i := uint64(0); i < n; i++ {
		if uint64(slot) >= n {
			return nil, fmt.Errorf("%w: record %d points to slot %d of %d",
				ErrBrokenChain, i, slot, n)
		}

		if seen[slot] {
			return nil, fmt.Errorf("%w: slot %d visited twice", ErrBrokenChain, slot)
		}
		seen[slot] = true

		rec, next := Unpack(words[slot])
		records = append(records, rec)
		slot = next
	}

	if n > 0 && slot != LastNext {
		return nil, fmt.Errorf("%w: last record points to slot %d", ErrBrokenChain, slot)
	}

	return records, nil
}
