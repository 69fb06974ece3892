package market

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-threshing-market/internal/kv"
	"github.com/ariefcatur/go-threshing-market/internal/notify"
	"github.com/ariefcatur/go-threshing-market/internal/validate"
)

func newListings(t *testing.T, recipients ...string) (*Listings, *notify.Relay) {
	t.Helper()
	relay := notify.NewRelay(kv.NewMemoryStore())
	return &Listings{Catalog: DefaultCatalog(), Notifier: relay, Recipients: recipients}, relay
}

var srinivas = &User{Name: "Srinivas Farms", Role: RoleFarmer, Location: "Guntur, AP"}

func TestListings_Publish(t *testing.T) {
	ctx := context.Background()
	l, relay := newListings(t, "Retailer Joe", "Srinivas Farms")

	p, err := l.Publish(ctx, srinivas, ListingInput{Type: "Paddy Husk", Quantity: 800, Price: decimal.RequireFromString("10.5")})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Srinivas Farms", p.Farmer)
	assert.Equal(t, "Guntur, AP", p.Location)

	got, err := l.Catalog.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 800, got.Quantity)
	assert.Len(t, l.Catalog.All(), 16)

	buyer, err := relay.ListFor(ctx, "Retailer Joe")
	require.NoError(t, err)
	require.Len(t, buyer, 1)
	assert.Equal(t, "New listing: 800 KG of Paddy Husk available at ₹10.5/KG.", buyer[0].Message)

	self, err := relay.ListFor(ctx, "Srinivas Farms")
	require.NoError(t, err)
	assert.Empty(t, self)
}

func TestListings_PublishValidation(t *testing.T) {
	l, _ := newListings(t)
	ctx := context.Background()

	_, err := l.Publish(ctx, nil, ListingInput{Type: "Paddy Husk", Quantity: 1, Price: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, ErrNoCurrentUser))

	_, err = l.Publish(ctx, srinivas, ListingInput{Quantity: 1, Price: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, validate.ErrValidation))

	_, err = l.Publish(ctx, srinivas, ListingInput{Type: "Paddy Husk", Price: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	_, err = l.Publish(ctx, srinivas, ListingInput{Type: "Paddy Husk", Quantity: 1})
	assert.True(t, errors.Is(err, validate.ErrValidation))

	assert.Len(t, l.Catalog.All(), 15)
}

func TestListings_NotificationFailureKeepsListing(t *testing.T) {
	l := &Listings{Catalog: DefaultCatalog(), Notifier: &failingNotifier{}, Recipients: []string{"Retailer Joe"}}

	p, err := l.Publish(context.Background(), srinivas, ListingInput{Type: "Rice Straw", Quantity: 5, Price: decimal.NewFromInt(12)})
	require.NoError(t, err)
	_, err = l.Catalog.Get(p.ID)
	assert.NoError(t, err)
}
