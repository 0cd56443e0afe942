package pricing

// Category identifies a weekly discount candidate.
type Category string

const (
	CategoryDays   Category = "days"
	CategoryVolume Category = "volume"
	CategoryPromo  Category = "promotional"
)

// Candidate pairs a discount category with its computed rate.
type Candidate struct {
	Category Category
	Rate     float64
}

// weeklyCandidates returns the discount candidates in priority order. The
// order is a product contract: on an exact rate tie the earlier-listed
// category keeps the win (days, then volume, then promotional).
func weeklyCandidates(cfg Config, sel Selection, totalItems int) []Candidate {
	return []Candidate{
		{Category: CategoryDays, Rate: bandRate(cfg.DayBands, sel.DaysPerWeek)},
		{Category: CategoryVolume, Rate: bandRate(cfg.VolumeBands, totalItems)},
		{Category: CategoryPromo, Rate: promoRate(cfg, sel.PromoCode)},
	}
}

// pickWeeklyDiscount selects exactly one candidate: the first with the
// strictly greatest rate. Weekly discounts are best-of, never summed.
func pickWeeklyDiscount(candidates []Candidate) Candidate {
	best := Candidate{Category: CategoryDays}
	if len(candidates) == 0 {
		return best
	}
	best = candidates[0]
	for _, c := range candidates[1:] {
		if c.Rate > best.Rate {
			best = c
		}
	}
	return best
}

func bandRate(bands []Band, value int) float64 {
	for _, b := range bands {
		if value < b.Min {
			continue
		}
		if b.Max > 0 && value > b.Max {
			continue
		}
		return b.Rate
	}
	return 0
}
