package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/dinein-kiosk/internal/offer"
)

// Offer is one element of the GET /offers response. Kind selects which of the
// rule fields apply.
type Offer struct {
	ID               string  `json:"id" validate:"required"`
	Name             string  `json:"name" validate:"required"`
	Kind             string  `json:"kind" validate:"required,oneof=percentage flat bogo"`
	Percent          *Amount `json:"percent,omitempty" validate:"required_if=Kind percentage"`
	MinSubtotal      *Amount `json:"min_subtotal,omitempty" validate:"required_if=Kind flat"`
	AmountOff        *Amount `json:"amount_off,omitempty" validate:"required_if=Kind flat"`
	Category         string  `json:"category,omitempty" validate:"required_if=Kind bogo"`
	RequiredMultiple int     `json:"required_multiple,omitempty" validate:"required_if=Kind bogo"`
}

var hundred = decimal.NewFromInt(100)

// DecodeOffers reads an offer list. Malformed entries are skipped and reported
// through the joined error while the valid ones are still returned.
func DecodeOffers(r io.Reader) ([]offer.Offer, error) {
	var raw []Offer
	if err := decodeLenient(r, &raw); err != nil {
		return nil, err
	}
	out := make([]offer.Offer, 0, len(raw))
	var errs []error
	for i := range raw {
		o, err := raw[i].toDomain(fmt.Sprintf("[%d].", i))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, o)
	}
	return out, errors.Join(errs...)
}

func (w *Offer) toDomain(prefix string) (offer.Offer, error) {
	if err := validateStruct(prefix, w); err != nil {
		return nil, err
	}
	meta := offer.Meta{ID: w.ID, Name: w.Name}
	switch offer.Kind(w.Kind) {
	case offer.KindPercentage:
		if w.Percent.IsNegative() || w.Percent.GreaterThan(hundred) {
			return nil, fieldError(prefix+"percent", "must be between 0 and 100")
		}
		return offer.Percentage{Meta: meta, Percent: w.Percent.Decimal}, nil
	case offer.KindFlatThreshold:
		if err := nonNegative(prefix+"min_subtotal", w.MinSubtotal); err != nil {
			return nil, err
		}
		if err := nonNegative(prefix+"amount_off", w.AmountOff); err != nil {
			return nil, err
		}
		return offer.FlatThreshold{Meta: meta, MinSubtotal: w.MinSubtotal.Decimal, AmountOff: w.AmountOff.Decimal}, nil
	default:
		if w.RequiredMultiple < 2 {
			return nil, fieldError(prefix+"required_multiple", "must be at least 2")
		}
		return offer.CategoryBogo{Meta: meta, Category: w.Category, RequiredMultiple: w.RequiredMultiple}, nil
	}
}

// FromOffers renders offers in wire form.
func FromOffers(offers []offer.Offer) []Offer {
	out := make([]Offer, 0, len(offers))
	for _, o := range offers {
		w := Offer{ID: o.Key(), Name: o.Label(), Kind: string(o.Kind())}
		switch v := o.(type) {
		case offer.Percentage:
			w.Percent = AmountPtr(v.Percent)
		case offer.FlatThreshold:
			w.MinSubtotal = AmountPtr(v.MinSubtotal)
			w.AmountOff = AmountPtr(v.AmountOff)
		case offer.CategoryBogo:
			w.Category = v.Category
			w.RequiredMultiple = v.RequiredMultiple
		}
		out = append(out, w)
	}
	return out
}
