package notify

import "time"

// KeyNotifications is the store key holding every notification as one JSON array.
const KeyNotifications = "notifications"

type Notification struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"` // matched by exact name, no referential integrity
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // unix millis
	Read      bool   `json:"read"`
	Link      string `json:"link,omitempty"`
}

func (n Notification) CreatedAt() time.Time { return time.UnixMilli(n.Timestamp) }

// Draft is a notification before the relay assigns id, timestamp and read flag.
type Draft struct {
	Recipient string
	Sender    string
	Message   string
	Link      string
}

// Retention bounds the stored collection. Zero disables a rule.
type Retention struct {
	MaxKeep int
	MaxAge  time.Duration
}

// prune drops entries older than MaxAge, then keeps the MaxKeep most recently
// appended ones. The collection is append-only, so insertion order stands in for age.
// The last fresh entries are the batch being written and always survive, even when
// the batch alone is larger than MaxKeep.
func (r Retention) prune(all []Notification, now time.Time, fresh int) []Notification {
	if fresh > len(all) {
		fresh = len(all)
	}
	old, batch := all[:len(all)-fresh], all[len(all)-fresh:]
	if r.MaxAge > 0 {
		cutoff := now.Add(-r.MaxAge).UnixMilli()
		kept := make([]Notification, 0, len(old))
		for _, n := range old {
			if n.Timestamp >= cutoff {
				kept = append(kept, n)
			}
		}
		old = kept
	}
	if r.MaxKeep > 0 {
		room := r.MaxKeep - len(batch)
		if room < 0 {
			room = 0
		}
		if len(old) > room {
			old = old[len(old)-room:]
		}
	}
	return append(old[:len(old):len(old)], batch...)
}
