package httpx

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-threshing-market/internal/kv"
	"github.com/ariefcatur/go-threshing-market/internal/logger"
	"github.com/ariefcatur/go-threshing-market/internal/market"
)

const HeaderSession = "X-Session-ID"

// Session is one browser-equivalent: its own identity keys and its own cart.
type Session struct {
	ID    string
	Store kv.Store
	Cart  *market.Cart
}

func (s *Session) User(ctx context.Context) (*market.User, error) {
	return market.CurrentUser(ctx, s.Store)
}

// Sessions keeps carts in memory. Identities live in the shared store under a
// per-session prefix, so a session survives a restart but its cart does not.
type Sessions struct {
	Store       kv.Store
	Notifier    market.Notifier
	NotifyOnAdd bool
	Log         *logger.Logger

	mu   sync.Mutex
	byID map[string]*Session
}

func sessionStore(base kv.Store, id string) kv.Store {
	return kv.Prefixed(base, "session:"+id+":")
}

func (m *Sessions) newSession(id string) *Session {
	store := sessionStore(m.Store, id)
	opts := []market.CartOption{market.WithAddNotifications(m.NotifyOnAdd)}
	if m.Log != nil {
		opts = append(opts, market.WithCartLogger(m.Log.With("session", id)))
	}
	return &Session{ID: id, Store: store, Cart: market.NewCart(store, m.Notifier, opts...)}
}

// Create stores u as the identity of a fresh session.
func (m *Sessions) Create(ctx context.Context, u market.User) (*Session, error) {
	s := m.newSession(uuid.NewString())
	if err := market.SaveUser(ctx, s.Store, u); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byID == nil {
		m.byID = map[string]*Session{}
	}
	m.byID[s.ID] = s
	return s, nil
}

// Get returns the session for id, rebuilding it from the store when this process has
// not seen it yet. The store read happens outside the lock.
func (m *Sessions) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errUnknownSession
	}
	m.mu.Lock()
	s, ok := m.byID[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	u, err := market.CurrentUser(ctx, sessionStore(m.Store, id))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errUnknownSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byID[id]; ok {
		return s, nil
	}
	if m.byID == nil {
		m.byID = map[string]*Session{}
	}
	s = m.newSession(id)
	m.byID[id] = s
	return s, nil
}

func (m *Sessions) FromRequest(r *http.Request) (*Session, error) {
	return m.Get(r.Context(), r.Header.Get(HeaderSession))
}

// CurrentUser resolves the request's session and its identity.
func (m *Sessions) CurrentUser(r *http.Request) (*Session, *market.User, error) {
	s, err := m.FromRequest(r)
	if err != nil {
		return nil, nil, err
	}
	u, err := s.User(r.Context())
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, nil, market.ErrNoCurrentUser
	}
	return s, u, nil
}
