package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"smartconnect/internal/services"
)

func ListUsers(svc *services.UserService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := svc.List(r.Context(), r.URL.Query().Get("rol"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		out := make([]userOut, 0, len(ps))
		for _, p := range ps {
			out = append(out, userFrom(p))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func CreateUser(svc *services.UserService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userIn
		if !decodeOrFail(w, r, &req) {
			return
		}
		p, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusCreated, userFrom(p))
	}
}

func GetUser(svc *services.UserService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, userFrom(p))
	}
}

func UpdateUser(svc *services.UserService, lg *zap.SugaredLogger, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userIn
		if !decodeOrFail(w, r, &req) {
			return
		}
		p, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req.toInput(), partial)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, http.StatusOK, userFrom(p))
	}
}

func DeleteUser(svc *services.UserService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
