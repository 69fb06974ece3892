package notify

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/juju/clock"

	"github.com/ariefcatur/go-threshing-market/internal/logger"
)

// Lister is the read side of the relay.
type Lister interface {
	ListFor(ctx context.Context, recipient string) ([]Notification, error)
}

// Poller re-reads a recipient's notifications on a fixed interval and reports when
// anything visible changed. It is the session-side half of the relay: nothing is
// pushed, the store is simply read again.
type Poller struct {
	lister    Lister
	recipient string
	interval  time.Duration
	clock     clock.Clock
	onChange  func([]Notification)
	log       *logger.Logger
	kick      chan struct{}
}

// DefaultPollInterval replaces a non-positive interval given to NewPoller.
const DefaultPollInterval = 5 * time.Second

func NewPoller(l Lister, recipient string, interval time.Duration, clk clock.Clock,
	onChange func([]Notification), log *logger.Logger) *Poller {
	if clk == nil {
		clk = clock.WallClock
	}
	if log == nil {
		log = logger.Nop()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		lister:    l,
		recipient: recipient,
		interval:  interval,
		clock:     clk,
		onChange:  onChange,
		log:       log.With("recipient", recipient),
		kick:      make(chan struct{}, 1),
	}
}

// Run polls immediately and then once per interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	last := ""
	first := true
	for {
		list, err := p.lister.ListFor(ctx, p.recipient)
		if err != nil {
			// a failed poll shows nothing new; the next tick tries again
			p.log.Warn("poll notifications", "error", err)
		} else if sig := signature(list); first || sig != last {
			first = false
			last = sig
			p.onChange(list)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-p.clock.After(p.interval):
		case <-p.kick:
		}
	}
}

// Kick asks for a poll now instead of at the next tick.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func signature(list []Notification) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(Unread(list)))
	for _, n := range list {
		b.WriteByte('|')
		b.WriteString(n.ID)
	}
	return b.String()
}
