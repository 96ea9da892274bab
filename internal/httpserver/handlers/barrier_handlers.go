package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"smartconnect/internal/auth"
	"smartconnect/internal/services"
)

func ListBarriers(svc *services.BarrierService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := svc.List(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		out := make([]barrierOut, 0, len(bs))
		for _, b := range bs {
			out = append(out, barrierFrom(b))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func CreateBarrier(svc *services.BarrierService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req barrierIn
		if !decodeOrFail(w, r, &req) {
			return
		}
		b, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusCreated, barrierFrom(b))
	}
}

func GetBarrier(svc *services.BarrierService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, barrierFrom(b))
	}
}

func UpdateBarrier(svc *services.BarrierService, lg *zap.SugaredLogger, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req barrierIn
		if !decodeOrFail(w, r, &req) {
			return
		}
		b, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req.toInput(), partial)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, barrierFrom(b))
	}
}

func DeleteBarrier(svc *services.BarrierService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// OpenBarrier handles POST /barreras/{id}/abrir/.
func OpenBarrier(svc *services.BarrierService, lg *zap.SugaredLogger) http.HandlerFunc {
	return transitionHandler(svc.Open, lg)
}

// CloseBarrier handles POST /barreras/{id}/cerrar/.
func CloseBarrier(svc *services.BarrierService, lg *zap.SugaredLogger) http.HandlerFunc {
	return transitionHandler(svc.Close, lg)
}

type transitionFunc func(ctx context.Context, id string, actor services.Actor) (services.Transition, error)

func transitionHandler(fn transitionFunc, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.PrincipalFrom(r.Context())
		t, err := fn(r.Context(), chi.URLParam(r, "id"), services.Actor{UserID: p.UserID, ProfileID: p.ProfileID})
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"message": t.Message,
			"barrera": barrierFrom(t.Barrier),
			"evento":  t.Event.ID,
		})
	}
}
