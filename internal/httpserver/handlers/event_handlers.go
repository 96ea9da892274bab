package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"smartconnect/internal/services"
)

// ListEvents supports ?tipo=, ?sensor= and ?barrera= filters, newest first.
func ListEvents(svc *services.EventService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		es, err := svc.List(r.Context(), services.EventFilter{
			Type:      q.Get("tipo"),
			SensorID:  q.Get("sensor"),
			BarrierID: q.Get("barrera"),
		})
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		out := make([]eventOut, 0, len(es))
		for _, e := range es {
			out = append(out, eventFrom(e))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func CreateEvent(svc *services.EventService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventIn
		if !decodeOrFail(w, r, &req) {
			return
		}
		e, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusCreated, eventFrom(e))
	}
}

func GetEvent(svc *services.EventService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, eventFrom(e))
	}
}

func DeleteEvent(svc *services.EventService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
