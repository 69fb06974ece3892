package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-threshing-market/internal/advisory"
)

type AdviceHandler struct {
	Advisor advisory.Service
}

func (h *AdviceHandler) Register(r *chi.Mux) {
	r.Route("/advice", func(r chi.Router) {
		r.Post("/crops", adviceRoute(h.Advisor.SuggestCrops))
		r.Post("/pesticides", adviceRoute(h.Advisor.SuggestPesticides))
		r.Post("/diagnosis", adviceRoute(h.Advisor.DiagnosePlantHealth))
		r.Post("/crop-details", adviceRoute(h.Advisor.GetCropDetails))
	})
}

// adviceRoute decodes In, calls the flow and writes its Out. Model calls are slow, so
// the deadline is longer than for store-backed routes.
func adviceRoute[In, Out any](flow func(context.Context, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decode(r, &in); err != nil {
			writeError(w, err)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 50*time.Second)
		defer cancel()

		out, err := flow(ctx, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
