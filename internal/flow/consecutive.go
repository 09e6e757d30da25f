package flow

import (
	"time"

	"github.com/wonny/flowscan/internal/contracts"
)

// BuildConsecutive computes, per minor class, the tickers with net-buy > 0
// on every window day, then the strict (all three) and relaxed (any two)
// sets. A day whose class data is unavailable contributes an empty set and
// is recorded in Missing.
func BuildConsecutive(days []*contracts.DaySnapshot) *contracts.ConsecutiveSets {
	return buildSets(days, contracts.MinorClasses).sets()
}

// classStreaks holds per-class consecutive bitsets over a shared index
type classStreaks struct {
	index   *tickerIndex
	byClass map[contracts.InvestorClass]bitset
	missing map[contracts.InvestorClass][]time.Time
}

func buildSets(days []*contracts.DaySnapshot, classes []contracts.InvestorClass) *classStreaks {
	index := newTickerIndex(buyerUniverse(days, classes))
	cs := &classStreaks{
		index:   index,
		byClass: make(map[contracts.InvestorClass]bitset, len(classes)),
		missing: make(map[contracts.InvestorClass][]time.Time),
	}

	for _, class := range classes {
		if len(days) == 0 {
			cs.byClass[class] = index.newSet()
			continue
		}

		acc := index.full()
		for _, day := range days {
			dayBits := index.newSet()
			if day.HasClass(class) {
				for ticker, v := range day.NetBuy[class] {
					if v > 0 {
						dayBits.set(index.pos[ticker])
					}
				}
			} else {
				cs.missing[class] = append(cs.missing[class], dayOf(day))
			}
			acc = acc.and(dayBits)
		}
		cs.byClass[class] = acc
	}

	return cs
}

func (cs *classStreaks) sets() *contracts.ConsecutiveSets {
	f := cs.byClass[contracts.Foreign]
	t := cs.byClass[contracts.InvestmentTrust]
	p := cs.byClass[contracts.Pension]

	strict := f.and(t).and(p)
	relaxed := f.and(t).or(t.and(p)).or(f.and(p))

	out := &contracts.ConsecutiveSets{
		ByClass: make(map[contracts.InvestorClass]contracts.TickerSet, len(cs.byClass)),
		Strict:  cs.index.toSet(strict),
		Relaxed: cs.index.toSet(relaxed),
	}
	for class, b := range cs.byClass {
		out.ByClass[class] = cs.index.toSet(b)
	}
	if len(cs.missing) > 0 {
		out.Missing = cs.missing
	}
	return out
}

// buyerUniverse collects every ticker with positive net-buy on any day
func buyerUniverse(days []*contracts.DaySnapshot, classes []contracts.InvestorClass) []string {
	seen := make(map[string]struct{})
	for _, day := range days {
		if day == nil {
			continue
		}
		for _, class := range classes {
			for ticker, v := range day.NetBuy[class] {
				if v > 0 {
					seen[ticker] = struct{}{}
				}
			}
		}
	}
	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	return codes
}

func dayOf(day *contracts.DaySnapshot) time.Time {
	if day == nil {
		return time.Time{}
	}
	return day.Date
}
