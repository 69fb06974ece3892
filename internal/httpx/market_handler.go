package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-threshing-market/internal/market"
)

type MarketHandler struct {
	Sessions *Sessions
	Catalog  *market.Catalog
	Listings *market.Listings
}

func (h *MarketHandler) Register(r *chi.Mux) {
	r.Post("/sessions", h.createSession)
	r.Get("/me", h.me)
	r.Get("/products", h.listProducts)
	r.Post("/listings", h.createListing)
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addToCart)
	r.Delete("/cart/items/{id}", h.removeFromCart)
	r.Post("/cart/checkout", h.checkout)
}

type CreateSessionResp struct {
	SessionID string      `json:"session_id"`
	User      market.User `json:"user"`
}

type ProductView struct {
	market.Product
	Available int `json:"available"`
}

type CartView struct {
	Lines     []CartLineView `json:"lines"`
	ItemCount int            `json:"item_count"`
	Total     string         `json:"total"`
}

type CartLineView struct {
	market.CartLine
	Subtotal string `json:"subtotal"`
}

type AddToCartReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CheckoutResp struct {
	Requests []market.SellerRequest `json:"requests"`
	Total    string                 `json:"total"`
}

func (h *MarketHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var u market.User
	if err := decode(r, &u); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Sessions.Create(ctx, u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateSessionResp{SessionID: s.ID, User: u})
}

func (h *MarketHandler) me(w http.ResponseWriter, r *http.Request) {
	_, u, err := h.Sessions.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// listProducts works without a session; with one, availability reflects that cart.
func (h *MarketHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	var cart *market.Cart
	if r.Header.Get(HeaderSession) != "" {
		s, err := h.Sessions.FromRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}
		cart = s.Cart
	}

	ps := h.Catalog.Search(r.URL.Query().Get("q"))
	out := make([]ProductView, 0, len(ps))
	for _, p := range ps {
		v := ProductView{Product: p, Available: p.Quantity}
		if cart != nil {
			v.Available = cart.Available(p)
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MarketHandler) createListing(w http.ResponseWriter, r *http.Request) {
	_, u, err := h.Sessions.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if u.Role != market.RoleFarmer {
		writeError(w, errFarmersOnly)
		return
	}
	var in market.ListingInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Listings.Publish(ctx, u, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func cartView(c *market.Cart) CartView {
	lines := c.Lines()
	out := CartView{Lines: make([]CartLineView, 0, len(lines)), ItemCount: c.ItemCount(), Total: c.Total().StringFixed(2)}
	for _, l := range lines {
		out.Lines = append(out.Lines, CartLineView{CartLine: l, Subtotal: l.Subtotal().StringFixed(2)})
	}
	return out
}

func (h *MarketHandler) getCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.FromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartView(s.Cart))
}

func (h *MarketHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.FromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req AddToCartReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Catalog.Get(req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.Cart.Add(ctx, p, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartView(s.Cart))
}

func (h *MarketHandler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.FromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.Cart.Remove(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, cartView(s.Cart))
}

func (h *MarketHandler) checkout(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.FromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	reqs, err := s.Cart.Checkout(ctx)
	if err != nil {
		if errors.Is(err, market.ErrEmptyCart) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Your cart is empty."})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResp{Requests: reqs, Total: totalOf(reqs).StringFixed(2)})
}

func totalOf(reqs []market.SellerRequest) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range reqs {
		sum = sum.Add(r.Total)
	}
	return sum
}
