package flow

import (
	"sort"

	"github.com/wonny/flowscan/internal/contracts"
)

// StreakThresholds are window-total floors for the streak report (원)
type StreakThresholds struct {
	Major int64 // 외국인, 기관
	Minor int64 // 연기금
}

func (t StreakThresholds) of(class contracts.InvestorClass) int64 {
	if class == contracts.Pension {
		return t.Minor
	}
	return t.Major
}

// Streaks lists, per streak class, the tickers that net-bought on every
// window day with a window total at or above the class threshold, sorted by
// total descending. The intersection holds tickers present in two or more
// class lists, sorted by summed total descending.
func Streaks(days []*contracts.DaySnapshot, th StreakThresholds) (map[contracts.InvestorClass][]contracts.StreakEntry, []contracts.StreakOverlap) {
	cs := buildSets(days, contracts.StreakClasses)
	byClass := make(map[contracts.InvestorClass][]contracts.StreakEntry, len(contracts.StreakClasses))

	for _, class := range contracts.StreakClasses {
		entries := make([]contracts.StreakEntry, 0)
		for ticker := range cs.index.toSet(cs.byClass[class]) {
			e := contracts.StreakEntry{Ticker: ticker, Daily: make([]int64, len(days))}
			for i, day := range days {
				v := day.NetBuyOf(class, ticker)
				e.Daily[i] = v
				e.Total += v
			}
			if e.Total >= th.of(class) {
				entries = append(entries, e)
			}
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Total != entries[j].Total {
				return entries[i].Total > entries[j].Total
			}
			return entries[i].Ticker < entries[j].Ticker
		})
		byClass[class] = entries
	}

	return byClass, intersect(byClass)
}

func intersect(byClass map[contracts.InvestorClass][]contracts.StreakEntry) []contracts.StreakOverlap {
	overlaps := make(map[string]*contracts.StreakOverlap)
	for _, class := range contracts.StreakClasses {
		for _, e := range byClass[class] {
			o, ok := overlaps[e.Ticker]
			if !ok {
				o = &contracts.StreakOverlap{Ticker: e.Ticker}
				overlaps[e.Ticker] = o
			}
			o.Classes = append(o.Classes, class)
			o.Total += e.Total
		}
	}

	out := make([]contracts.StreakOverlap, 0)
	for _, o := range overlaps {
		if len(o.Classes) >= 2 {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}
