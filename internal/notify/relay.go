// Package notify relays directed messages between named marketplace participants.
//
// Every mutation is a read-modify-write of the whole collection under
// KeyNotifications. Writes through one Relay are serialized; separate processes
// sharing a store still race and the last one wins, which at worst loses a read flag
// or an appended message.
package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/ariefcatur/go-threshing-market/internal/kv"
	"github.com/ariefcatur/go-threshing-market/internal/logger"
	"github.com/ariefcatur/go-threshing-market/internal/validate"
)

// ErrStoreUnavailable is returned when the backing store cannot be read or written.
var ErrStoreUnavailable = kv.ErrUnavailable

// Publisher receives every notification after it has been stored. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, n Notification)
}

type Relay struct {
	mu        sync.Mutex
	store     kv.Store
	clock     clock.Clock
	retention Retention
	publisher Publisher
	log       *logger.Logger
}

type Option func(*Relay)

func WithClock(c clock.Clock) Option { return func(r *Relay) { r.clock = c } }
func WithRetention(rt Retention) Option { return func(r *Relay) { r.retention = rt } }
func WithPublisher(p Publisher) Option { return func(r *Relay) { r.publisher = p } }
func WithLogger(l *logger.Logger) Option { return func(r *Relay) { r.log = l } }

func NewRelay(store kv.Store, opts ...Option) *Relay {
	r := &Relay{
		store: store,
		clock: clock.WallClock,
		log:   logger.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Send stores one notification. Recipients are plain names; sending to someone who
// never logs in is accepted and simply never observed.
func (r *Relay) Send(ctx context.Context, recipient, sender, message string) (Notification, error) {
	out, err := r.SendAll(ctx, []Draft{{Recipient: recipient, Sender: sender, Message: message}})
	if err != nil {
		return Notification{}, err
	}
	return out[0], nil
}

// SendAll stores every draft with a single write: either all of them land or none do.
func (r *Relay) SendAll(ctx context.Context, drafts []Draft) ([]Notification, error) {
	for _, d := range drafts {
		if err := validate.Required(
			validate.Field{Name: "recipient", Value: d.Recipient},
			validate.Field{Name: "sender", Value: d.Sender},
			validate.Field{Name: "message", Value: d.Message},
		); err != nil {
			return nil, err
		}
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	created := make([]Notification, 0, len(drafts))
	for _, d := range drafts {
		created = append(created, Notification{
			ID:        fmt.Sprintf("notif-%d-%s", now.UnixMilli(), uuid.NewString()),
			Recipient: d.Recipient,
			Sender:    d.Sender,
			Message:   d.Message,
			Timestamp: now.UnixMilli(),
			Link:      d.Link,
		})
	}
	all = r.retention.prune(append(all, created...), now, len(created))

	if err := r.save(ctx, all); err != nil {
		return nil, err
	}

	if r.publisher != nil {
		for _, n := range created {
			r.publisher.Publish(ctx, n)
		}
	}
	r.log.Debug("notifications stored", "count", len(created), "total", len(all))
	return created, nil
}

// ListFor returns the recipient's notifications newest first. Equal timestamps keep
// the order they were appended in.
func (r *Relay) ListFor(ctx context.Context, recipient string) ([]Notification, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0)
	for _, n := range all {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

// MarkAllRead flips the read flag on the recipient's notifications and leaves
// everyone else's untouched. It returns how many changed.
func (r *Relay) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range all {
		if all[i].Recipient == recipient && !all[i].Read {
			all[i].Read = true
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := r.save(ctx, all); err != nil {
		return 0, err
	}
	return changed, nil
}

func (r *Relay) UnreadCount(ctx context.Context, recipient string) (int, error) {
	list, err := r.ListFor(ctx, recipient)
	if err != nil {
		return 0, err
	}
	return Unread(list), nil
}

// Unread counts the entries of list that have not been read.
func Unread(list []Notification) int {
	n := 0
	for _, x := range list {
		if !x.Read {
			n++
		}
	}
	return n
}

func (r *Relay) load(ctx context.Context) ([]Notification, error) {
	var all []Notification
	if _, err := kv.GetJSON(ctx, r.store, KeyNotifications, &all); err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	return all, nil
}

func (r *Relay) save(ctx context.Context, all []Notification) error {
	if err := kv.SetJSON(ctx, r.store, KeyNotifications, all); err != nil {
		return fmt.Errorf("save notifications: %w", err)
	}
	return nil
}
