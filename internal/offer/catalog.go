package offer

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/dinein-kiosk/internal/obs"
)

// Fetcher loads the venue's published offers.
type Fetcher interface {
	FetchOffers(ctx context.Context) ([]Offer, error)
}

// Catalog is an ordered, id-indexed set of offers.
type Catalog struct {
	offers []Offer
	index  map[string]int
}

// NewCatalog builds a catalog. Offers with an empty or repeated id are skipped.
func NewCatalog(offers ...Offer) *Catalog {
	c := &Catalog{index: make(map[string]int, len(offers))}
	for _, o := range offers {
		if o == nil || o.Key() == "" {
			continue
		}
		if _, dup := c.index[o.Key()]; dup {
			continue
		}
		c.index[o.Key()] = len(c.offers)
		c.offers = append(c.offers, o)
	}
	return c
}

// Defaults returns the venue's standing offers.
func Defaults() *Catalog {
	return NewCatalog(
		Percentage{
			Meta:    Meta{ID: "1", Name: "10% Off on Total"},
			Percent: decimal.NewFromInt(10),
		},
		FlatThreshold{
			Meta:        Meta{ID: "2", Name: "Flat 50 Off on Orders Above 500"},
			MinSubtotal: decimal.NewFromInt(500),
			AmountOff:   decimal.NewFromInt(50),
		},
		CategoryBogo{
			Meta:             Meta{ID: "3", Name: "Buy 2 Get 1 Free (Desserts)"},
			Category:         "Dessert",
			RequiredMultiple: 2,
		},
	)
}

// Load fetches offers from f. When the fetch fails or yields nothing usable the
// receiver is returned unchanged alongside the error, so checkout keeps working.
func (c *Catalog) Load(ctx context.Context, f Fetcher) (*Catalog, error) {
	if f == nil {
		return c, nil
	}
	offers, err := f.FetchOffers(ctx)
	if err != nil {
		recordRefresh("error")
		return c, fmt.Errorf("load offers: %w", err)
	}
	next := NewCatalog(offers...)
	if next.Len() == 0 {
		recordRefresh("empty")
		return c, nil
	}
	recordRefresh("ok")
	return next, nil
}

func recordRefresh(result string) {
	if obs.OfferRefreshTotal != nil {
		obs.OfferRefreshTotal.WithLabelValues(result).Inc()
	}
}

// Lookup resolves id to an offer. Unknown or blank ids resolve to nil, which
// pricing treats as "no offer".
func (c *Catalog) Lookup(id string) Offer {
	if c == nil || id == "" {
		return nil
	}
	i, ok := c.index[id]
	if !ok {
		return nil
	}
	return c.offers[i]
}

// All returns the offers in publication order.
func (c *Catalog) All() []Offer {
	if c == nil {
		return nil
	}
	out := make([]Offer, len(c.offers))
	copy(out, c.offers)
	return out
}

// Len returns the number of offers.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.offers)
}
