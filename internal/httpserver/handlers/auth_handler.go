package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartconnect/internal/auth"
	"smartconnect/internal/models"
)

func unauthorized(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusUnauthorized, errorBody{Error: msg, Code: "unauthenticated"})
}

// ObtainToken exchanges username/password for an access/refresh pair.
func ObtainToken(db *gorm.DB, tokens *auth.Tokens, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decodeOrFail(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			badRequest(w, "required", "username and password required")
			return
		}
		var u models.User
		err := db.WithContext(r.Context()).First(&u, "username = ?", strings.TrimSpace(req.Username)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			unauthorized(w, "invalid credentials")
			return
		}
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		if !u.IsActive || auth.CheckPassword(u.PasswordHash, req.Password) != nil {
			unauthorized(w, "invalid credentials")
			return
		}
		access, refresh, err := tokens.Pair(u.ID)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		lg.Infow("token issued", "user_id", u.ID, "username", u.Username)
		respondJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
	}
}

func RefreshToken(tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Refresh string `json:"refresh"`
		}
		if !decodeOrFail(w, r, &req) {
			return
		}
		access, err := tokens.Refresh(req.Refresh)
		if err != nil {
			unauthorized(w, "token is invalid or expired")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"access": access})
	}
}

func VerifyToken(tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		if !decodeOrFail(w, r, &req) {
			return
		}
		if _, err := tokens.Verify(req.Token); err != nil {
			unauthorized(w, "token is invalid or expired")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{})
	}
}
