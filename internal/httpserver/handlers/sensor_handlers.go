package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"smartconnect/internal/services"
)

// ListSensors supports ?estado= and ?departamento= filters.
func ListSensors(svc *services.SensorService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ss, err := svc.List(r.Context(), services.SensorFilter{
			State:        q.Get("estado"),
			DepartmentID: q.Get("departamento"),
		})
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, sensorsFrom(ss))
	}
}

func CreateSensor(svc *services.SensorService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sensorIn
		if !decodeOrFail(w, r, &req) {
			return
		}
		s, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusCreated, sensorFrom(s))
	}
}

func GetSensor(svc *services.SensorService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, sensorFrom(s))
	}
}

func UpdateSensor(svc *services.SensorService, lg *zap.SugaredLogger, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sensorIn
		if !decodeOrFail(w, r, &req) {
			return
		}
		s, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req.toInput(), partial)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, sensorFrom(s))
	}
}

func DeleteSensor(svc *services.SensorService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ChangeSensorState handles POST /sensores/{id}/cambiar_estado/.
func ChangeSensorState(svc *services.SensorService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Estado string `json:"estado"`
		}
		if !decodeOrFail(w, r, &req) {
			return
		}
		s, err := svc.SetState(r.Context(), chi.URLParam(r, "id"), req.Estado)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "Estado cambiado a " + req.Estado,
			"sensor":  sensorFrom(s),
		})
	}
}
