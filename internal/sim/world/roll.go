package world

import "math/rand"

// Roller is the source of attack rolls. The production roller is a seeded
// PRNG so that a recorded run replays bit-identically; tests substitute
// fixed sequences.
type Roller interface {
	// Roll returns a uniform value in [1, sides].
	Roll(sides int) int
}

type seededRoller struct {
	rng *rand.Rand
}

func NewRoller(seed int64) Roller {
	return &seededRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *seededRoller) Roll(sides int) int {
	return r.rng.Intn(sides) + 1
}

// FixedRoller yields a scripted sequence of rolls and then repeats the last
// value. Intended for tests.
type FixedRoller struct {
	Rolls []int
	next  int
}

func (f *FixedRoller) Roll(int) int {
	if len(f.Rolls) == 0 {
		return 1
	}
	v := f.Rolls[f.next]
	if f.next < len(f.Rolls)-1 {
		f.next++
	}
	return v
}
