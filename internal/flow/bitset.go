package flow

import (
	"math/bits"
	"sort"

	"github.com/wonny/flowscan/internal/contracts"
)

// tickerIndex maps tickers to dense bit positions
type tickerIndex struct {
	codes []string
	pos   map[string]int
}

func newTickerIndex(codes []string) *tickerIndex {
	sort.Strings(codes)
	idx := &tickerIndex{codes: codes, pos: make(map[string]int, len(codes))}
	for i, c := range codes {
		idx.pos[c] = i
	}
	return idx
}

func (x *tickerIndex) newSet() bitset {
	return make(bitset, (len(x.codes)+63)/64)
}

func (x *tickerIndex) full() bitset {
	b := x.newSet()
	for i := range b {
		b[i] = ^uint64(0)
	}
	if rem := len(x.codes) % 64; rem != 0 {
		b[len(b)-1] = (uint64(1) << rem) - 1
	}
	return b
}

func (x *tickerIndex) toSet(b bitset) contracts.TickerSet {
	out := make(contracts.TickerSet, b.count())
	for w, word := range b {
		for word != 0 {
			i := bits.TrailingZeros64(word)
			out.Add(x.codes[w*64+i])
			word &= word - 1
		}
	}
	return out
}

type bitset []uint64

func (b bitset) set(i int) {
	b[i/64] |= 1 << (uint(i) % 64)
}

// and returns b & o as a new set
func (b bitset) and(o bitset) bitset {
	out := make(bitset, len(b))
	for i := range b {
		out[i] = b[i] & o[i]
	}
	return out
}

// or returns b | o as a new set
func (b bitset) or(o bitset) bitset {
	out := make(bitset, len(b))
	for i := range b {
		out[i] = b[i] | o[i]
	}
	return out
}

func (b bitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}
