package contracts

import "sort"

// TickerSet is an unordered set of ticker codes
type TickerSet map[string]struct{}

// NewTickerSet builds a set from codes
func NewTickerSet(codes ...string) TickerSet {
	s := make(TickerSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts a ticker
func (s TickerSet) Add(code string) {
	s[code] = struct{}{}
}

// Has reports membership; a nil set is empty
func (s TickerSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Len returns the number of tickers
func (s TickerSet) Len() int {
	return len(s)
}

// Sorted returns the tickers in ascending order
func (s TickerSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
