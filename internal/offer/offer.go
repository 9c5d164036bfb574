package offer

import "github.com/shopspring/decimal"

// Kind names an offer variant. It is used for telemetry labels and the wire
// discriminator only; pricing dispatches on the concrete type.
type Kind string

const (
	KindPercentage    Kind = "percentage"
	KindFlatThreshold Kind = "flat"
	KindCategoryBogo  Kind = "bogo"
)

// Offer is a named discount rule. The set of implementations is closed to this package.
type Offer interface {
	Key() string
	Label() string
	Kind() Kind
	sealed()
}

// Meta carries the identity shared by every offer variant.
type Meta struct {
	ID   string
	Name string
}

// Key returns the offer id.
func (m Meta) Key() string { return m.ID }

// Label returns the display name.
func (m Meta) Label() string { return m.Name }

func (Meta) sealed() {}

// Percentage takes Percent percent off the subtotal.
type Percentage struct {
	Meta
	Percent decimal.Decimal
}

// Kind implements Offer.
func (Percentage) Kind() Kind { return KindPercentage }

// FlatThreshold takes AmountOff off once the subtotal reaches MinSubtotal.
type FlatThreshold struct {
	Meta
	MinSubtotal decimal.Decimal
	AmountOff   decimal.Decimal
}

// Kind implements Offer.
func (FlatThreshold) Kind() Kind { return KindFlatThreshold }

// CategoryBogo makes one unit free for every complete group of RequiredMultiple
// units of an item in Category.
type CategoryBogo struct {
	Meta
	Category         string
	RequiredMultiple int
}

// Kind implements Offer.
func (CategoryBogo) Kind() Kind { return KindCategoryBogo }
