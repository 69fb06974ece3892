package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-threshing-market/internal/notify"
)

type NotificationsHandler struct {
	Sessions *Sessions
	Relay    *notify.Relay
}

func (h *NotificationsHandler) Register(r *chi.Mux) {
	r.Get("/notifications", h.list)
	r.Post("/notifications/read", h.markAllRead)
}

type NotificationsResp struct {
	Notifications []notify.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

func (h *NotificationsHandler) list(w http.ResponseWriter, r *http.Request) {
	_, u, err := h.Sessions.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Relay.ListFor(ctx, u.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, NotificationsResp{Notifications: list, Unread: notify.Unread(list)})
}

func (h *NotificationsHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	_, u, err := h.Sessions.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	n, err := h.Relay.MarkAllRead(ctx, u.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}
