package market

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-threshing-market/internal/logger"
	"github.com/ariefcatur/go-threshing-market/internal/notify"
	"github.com/ariefcatur/go-threshing-market/internal/validate"
)

type ListingInput struct {
	Type     string          `json:"type"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Listings lets a farmer put threshing on the marketplace and tells the configured
// buyers about it.
type Listings struct {
	Catalog    *Catalog
	Notifier   Notifier
	Recipients []string
	Log        *logger.Logger
}

func (l *Listings) Publish(ctx context.Context, seller *User, in ListingInput) (Product, error) {
	if seller == nil {
		return Product{}, ErrNoCurrentUser
	}
	if err := validate.Required(validate.Field{Name: "type", Value: in.Type}); err != nil {
		return Product{}, err
	}
	if in.Quantity <= 0 {
		return Product{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, in.Quantity)
	}
	if !in.Price.IsPositive() {
		return Product{}, &validate.Error{Field: "price", Reason: "must be positive"}
	}

	p := Product{
		ID:       uuid.NewString(),
		Type:     in.Type,
		Quantity: in.Quantity,
		Price:    in.Price,
		Farmer:   seller.Name,
		Location: seller.Location,
	}
	if err := l.Catalog.Add(p); err != nil {
		return Product{}, err
	}

	msg := newListingMessage(in.Quantity, in.Type, in.Price)
	drafts := make([]notify.Draft, 0, len(l.Recipients))
	for _, r := range l.Recipients {
		if r != seller.Name {
			drafts = append(drafts, notify.Draft{Recipient: r, Sender: seller.Name, Message: msg})
		}
	}
	if len(drafts) > 0 {
		if _, err := l.Notifier.SendAll(ctx, drafts); err != nil && l.Log != nil {
			l.Log.Warn("listing notification failed", "product", p.ID, "error", err)
		}
	}
	return p, nil
}
