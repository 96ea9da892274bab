package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"smartconnect/internal/services"
)

func ListDepartments(svc *services.DepartmentService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := svc.List(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		out := make([]departmentOut, 0, len(ds))
		for _, d := range ds {
			out = append(out, departmentFrom(d))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func CreateDepartment(svc *services.DepartmentService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req departmentIn
		if !decodeOrFail(w, r, &req) {
			return
		}
		d, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusCreated, departmentFrom(d))
	}
}

func GetDepartment(svc *services.DepartmentService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, departmentFrom(d))
	}
}

// UpdateDepartment serves PUT (partial=false) and PATCH (partial=true).
func UpdateDepartment(svc *services.DepartmentService, lg *zap.SugaredLogger, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req departmentIn
		if !decodeOrFail(w, r, &req) {
			return
		}
		d, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req.toInput(), partial)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, departmentFrom(d))
	}
}

func DeleteDepartment(svc *services.DepartmentService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DepartmentSensors lists the sensors owned by one department.
func DepartmentSensors(svc *services.DepartmentService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ss, err := svc.Sensors(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, sensorsFrom(ss))
	}
}
