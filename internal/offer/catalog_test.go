package offer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dinein-kiosk/internal/offer"
)

type stubFetcher struct {
	offers []offer.Offer
	err    error
}

func (s stubFetcher) FetchOffers(context.Context) ([]offer.Offer, error) {
	return s.offers, s.err
}

func TestDefaults(t *testing.T) {
	catalog := offer.Defaults()
	require.Equal(t, 3, catalog.Len())

	pct, ok := catalog.Lookup("1").(offer.Percentage)
	require.True(t, ok)
	require.True(t, decimal.NewFromInt(10).Equal(pct.Percent))

	flat, ok := catalog.Lookup("2").(offer.FlatThreshold)
	require.True(t, ok)
	require.True(t, decimal.NewFromInt(500).Equal(flat.MinSubtotal))
	require.True(t, decimal.NewFromInt(50).Equal(flat.AmountOff))

	bogo, ok := catalog.Lookup("3").(offer.CategoryBogo)
	require.True(t, ok)
	require.Equal(t, "Dessert", bogo.Category)
	require.Equal(t, 2, bogo.RequiredMultiple)
	require.Equal(t, offer.KindCategoryBogo, bogo.Kind())
	require.Equal(t, "Buy 2 Get 1 Free (Desserts)", bogo.Label())
}

func TestLookupFailsOpen(t *testing.T) {
	catalog := offer.Defaults()
	require.Nil(t, catalog.Lookup(""))
	require.Nil(t, catalog.Lookup("retired-offer"))

	var empty *offer.Catalog
	require.Nil(t, empty.Lookup("1"))
	require.Zero(t, empty.Len())
}

func TestNewCatalogSkipsBlankAndDuplicateIDs(t *testing.T) {
	catalog := offer.NewCatalog(
		offer.Percentage{Meta: offer.Meta{ID: "a", Name: "first"}, Percent: decimal.NewFromInt(5)},
		offer.Percentage{Meta: offer.Meta{ID: "a", Name: "second"}, Percent: decimal.NewFromInt(50)},
		offer.Percentage{Meta: offer.Meta{Name: "no id"}},
		nil,
	)
	require.Equal(t, 1, catalog.Len())
	require.Equal(t, "first", catalog.Lookup("a").Label())
}

func TestLoadKeepsCurrentCatalogOnFailure(t *testing.T) {
	current := offer.Defaults()

	next, err := current.Load(context.Background(), stubFetcher{err: errors.New("offline")})
	require.Error(t, err)
	require.Same(t, current, next)

	next, err = current.Load(context.Background(), stubFetcher{})
	require.NoError(t, err)
	require.Same(t, current, next)

	next, err = current.Load(context.Background(), stubFetcher{offers: []offer.Offer{
		offer.FlatThreshold{Meta: offer.Meta{ID: "late", Name: "Late night"}, AmountOff: decimal.NewFromInt(20)},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, next.Len())
	require.NotNil(t, next.Lookup("late"))
	require.Nil(t, next.Lookup("1"))
}
