package accounting

import (
	"sort"
	"time"

	"cloudbill/pkg/types"
)

type priceKey struct {
	flavorID  string
	userClass int
}

// PriceIndex answers effective-price queries against a full price history.
// It is built once per report from the snapshot and is safe for concurrent
// readers after construction.
type PriceIndex struct {
	regimes map[priceKey][]types.PriceRecord // sorted ascending by StartTime
}

// NewPriceIndex builds an index over the given price history.
func NewPriceIndex(records []types.PriceRecord) *PriceIndex {
	ix := &PriceIndex{
		regimes: make(map[priceKey][]types.PriceRecord),
	}

	for _, rec := range records {
		key := priceKey{flavorID: rec.FlavorID, userClass: rec.UserClass}
		ix.regimes[key] = append(ix.regimes[key], rec)
	}

	for key := range ix.regimes {
		regs := ix.regimes[key]
		sort.Slice(regs, func(i, j int) bool {
			return regs[i].StartTime.Before(regs[j].StartTime)
		})
	}

	return ix
}

// PricedInterval is a sub-interval over which exactly one unit price applies.
type PricedInterval struct {
	Begin     time.Time
	End       time.Time
	UnitPrice float64
}

// Hours returns the sub-interval length in hours.
func (p PricedInterval) Hours() float64 {
	return p.End.Sub(p.Begin).Seconds() / secondsPerHour
}

// Split cuts [begin, end) at every price-regime boundary that falls strictly
// inside it and returns the pieces in ascending order, each carrying the
// single unit price effective throughout it.
//
// The effective price of a piece is the regime with the greatest start time
// not after the piece's start. If no regime covers the leading piece the
// whole call fails with a *NoPriceError: the engine never substitutes a
// default price.
func (ix *PriceIndex) Split(flavorID string, userClass int, begin, end time.Time) ([]PricedInterval, error) {
	regs := ix.regimes[priceKey{flavorID: flavorID, userClass: userClass}]

	// Regimes starting at or after end can never apply.
	n := sort.Search(len(regs), func(i int) bool {
		return !regs[i].StartTime.Before(end)
	})
	regs = regs[:n]

	if len(regs) == 0 || regs[0].StartTime.After(begin) {
		return nil, &NoPriceError{FlavorID: flavorID, UserClass: userClass, At: begin}
	}

	// Index of the regime in force at begin.
	cur := sort.Search(len(regs), func(i int) bool {
		return regs[i].StartTime.After(begin)
	}) - 1

	pieces := []PricedInterval{}
	pieceBegin := begin
	for i := cur + 1; i < len(regs); i++ {
		boundary := regs[i].StartTime
		if !boundary.After(pieceBegin) {
			continue
		}
		pieces = append(pieces, PricedInterval{
			Begin:     pieceBegin,
			End:       boundary,
			UnitPrice: regs[i-1].UnitPrice,
		})
		pieceBegin = boundary
	}
	pieces = append(pieces, PricedInterval{
		Begin:     pieceBegin,
		End:       end,
		UnitPrice: regs[len(regs)-1].UnitPrice,
	})

	return pieces, nil
}
