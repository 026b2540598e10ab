// Package elite keeps the best networks found so far, ordered by fitness.
package elite

import (
	"math/rand"
	"time"

	"neurosnake/internal/nn"
)

// DefaultCapacity matches the population size the trainer starts with.
const DefaultCapacity = 10

// preallocLimit caps the up-front allocation for capacities read from disk.
const preallocLimit = 1024

// Entry pairs a network with the fitness it was admitted with.
type Entry struct {
	Network *nn.Network
	Fitness float32
}

// List is a bounded sequence ordered by descending fitness; index 0 is the
// best network. The list owns every network added to it.
type List struct {
	maxLen  int
	entries []Entry
}

func NewList(maxLen int) *List {
	if maxLen < 0 {
		maxLen = 0
	}
	return &List{maxLen: maxLen, entries: make([]Entry, 0, min(maxLen, preallocLimit)+1)}
}

func (l *List) MaxLen() int { return l.maxLen }

// Add inserts net after every entry whose fitness is >= fitness. When the list
// grows past its capacity the last entry is dropped. It reports whether net
// is still a member afterwards.
func (l *List) Add(net *nn.Network, fitness float32) bool {
	pos := len(l.entries)
	for i, entry := range l.entries {
		if entry.Fitness < fitness {
			pos = i
			break
		}
	}

	l.entries = append(l.entries, Entry{})
	copy(l.entries[pos+1:], l.entries[pos:])
	l.entries[pos] = Entry{Network: net, Fitness: fitness}

	if len(l.entries) > l.maxLen {
		last := len(l.entries) - 1
		l.entries[last] = Entry{}
		l.entries = l.entries[:last]
		return pos < last
	}
	return true
}

// Best returns the head network, or nil when the list is empty.
func (l *List) Best() *nn.Network {
	if len(l.entries) == 0 {
		return nil
	}
	return l.entries[0].Network
}

// BestFitness returns the head fitness and false when the list is empty.
func (l *List) BestFitness() (float32, bool) {
	if len(l.entries) == 0 {
		return 0, false
	}
	return l.entries[0].Fitness, true
}

// PickRandom returns a uniformly chosen member other than exclude. A single
// member list returns its only network even if it is exclude.
func (l *List) PickRandom(rng *rand.Rand, exclude *nn.Network) *nn.Network {
	count := len(l.entries)
	if count == 0 {
		return nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if count == 1 {
		return l.entries[0].Network
	}

	candidates := make([]int, 0, count)
	for i, entry := range l.entries {
		if entry.Network != exclude {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return l.entries[rng.Intn(count)].Network
	}
	return l.entries[candidates[rng.Intn(len(candidates))]].Network
}

func (l *List) Count() int { return len(l.entries) }

// Entries returns a copy of the ordered members, best first.
func (l *List) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Clear drops every member.
func (l *List) Clear() {
	for i := range l.entries {
		l.entries[i] = Entry{}
	}
	l.entries = l.entries[:0]
}
