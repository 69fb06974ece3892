package market

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-threshing-market/internal/kv"
	"github.com/ariefcatur/go-threshing-market/internal/logger"
	"github.com/ariefcatur/go-threshing-market/internal/notify"
)

// Notifier is the write side of the notification relay.
type Notifier interface {
	Send(ctx context.Context, recipient, sender, message string) (notify.Notification, error)
	SendAll(ctx context.Context, drafts []notify.Draft) ([]notify.Notification, error)
}

// SellerRequest is the part of a checkout addressed to one seller.
type SellerRequest struct {
	Seller       string              `json:"seller"`
	Quantity     int                 `json:"quantity"`
	Total        decimal.Decimal     `json:"total"`
	Lines        []CartLine          `json:"lines"`
	Notification notify.Notification `json:"notification"`
}

// Cart holds one session's prospective purchases. Quantities are only checked against
// the catalog figure and this cart's own lines, never against other sessions.
type Cart struct {
	mu    sync.Mutex
	lines []CartLine

	session     kv.Store
	notifier    Notifier
	notifyOnAdd bool
	log         *logger.Logger
}

type CartOption func(*Cart)

// WithAddNotifications toggles the message sent to a seller on every add.
func WithAddNotifications(on bool) CartOption { return func(c *Cart) { c.notifyOnAdd = on } }

func WithCartLogger(l *logger.Logger) CartOption { return func(c *Cart) { c.log = l } }

// NewCart reads the current identity from session and sends through notifier.
func NewCart(session kv.Store, notifier Notifier, opts ...CartOption) *Cart {
	c := &Cart{
		session:     session,
		notifier:    notifier,
		notifyOnAdd: true,
		log:         logger.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Available is what is left of p after this cart's own line for it.
func (c *Cart) Available(p Product) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return p.Quantity - c.reserved(p.ID)
}

func (c *Cart) reserved(productID string) int {
	for _, l := range c.lines {
		if l.Product.ID == productID {
			return l.PurchaseQuantity
		}
	}
	return 0
}

// Add puts qty KG of p in the cart, merging with an existing line. Asking for exactly
// what is available succeeds. The seller is told on a best-effort basis; that message
// can fail without undoing the add.
func (c *Cart) Add(ctx context.Context, p Product, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}

	c.mu.Lock()
	available := p.Quantity - c.reserved(p.ID)
	if qty > available {
		c.mu.Unlock()
		return fmt.Errorf("%w: requested %d KG of %s, %d KG available", ErrQuantityExceedsAvailability, qty, p.Type, available)
	}
	merged := false
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].PurchaseQuantity += qty
			merged = true
			break
		}
	}
	if !merged {
		c.lines = append(c.lines, CartLine{Product: p, PurchaseQuantity: qty})
	}
	c.mu.Unlock()

	if c.notifyOnAdd {
		c.notifySeller(ctx, p, qty)
	}
	return nil
}

func (c *Cart) notifySeller(ctx context.Context, p Product, qty int) {
	user, err := CurrentUser(ctx, c.session)
	if err != nil {
		c.log.Warn("add-to-cart notification skipped", "product", p.ID, "error", err)
		return
	}
	if user == nil {
		return
	}
	if _, err := c.notifier.Send(ctx, p.Farmer, user.Name, addedToCartMessage(user.Name, qty, p.Type)); err != nil {
		c.log.Warn("add-to-cart notification failed", "product", p.ID, "seller", p.Farmer, "error", err)
	}
}

// Remove drops the line for productID. Removing something that is not there is fine.
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.lines {
		if l.Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CartLine(nil), c.lines...)
}

// ItemCount is the total KG across all lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.PurchaseQuantity
	}
	return n
}

// Total is carried at full precision; round only for display.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return total(c.lines)
}

func total(lines []CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Checkout sends one purchase request per seller and empties the cart. The requests
// are written together; if that write fails the cart is left exactly as it was.
func (c *Cart) Checkout(ctx context.Context) ([]SellerRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return nil, ErrEmptyCart
	}
	user, err := CurrentUser(ctx, c.session)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoCurrentUser
	}

	requests := groupBySeller(c.lines)
	drafts := make([]notify.Draft, 0, len(requests))
	for _, r := range requests {
		drafts = append(drafts, notify.Draft{
			Recipient: r.Seller,
			Sender:    user.Name,
			Message:   purchaseRequestMessage(r.Quantity, r.Total, r.Lines),
		})
	}

	sent, err := c.notifier.SendAll(ctx, drafts)
	if err != nil {
		return nil, fmt.Errorf("send purchase requests: %w", err)
	}
	for i := range requests {
		requests[i].Notification = sent[i]
	}

	c.lines = nil
	c.log.Info("checkout", "buyer", user.Name, "sellers", len(requests))
	return requests, nil
}

// groupBySeller keeps sellers in the order their first line was added.
func groupBySeller(lines []CartLine) []SellerRequest {
	idx := map[string]int{}
	var out []SellerRequest
	for _, l := range lines {
		i, ok := idx[l.Product.Farmer]
		if !ok {
			i = len(out)
			idx[l.Product.Farmer] = i
			out = append(out, SellerRequest{Seller: l.Product.Farmer, Total: decimal.Zero})
		}
		out[i].Lines = append(out[i].Lines, l)
		out[i].Quantity += l.PurchaseQuantity
		out[i].Total = out[i].Total.Add(l.Subtotal())
	}
	return out
}
