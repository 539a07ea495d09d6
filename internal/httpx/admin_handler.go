package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vklymiuk/tg-star-shop/internal/catalog"
)

type AdminHandler struct {
	Admins    catalog.AdminStore
	JWTSecret []byte
	TokenTTL  time.Duration
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Post("/api/admin/login", h.login)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (h *AdminHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	admin, err := h.Admins.AdminByUsername(ctx, req.Username)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	ttl := h.TokenTTL
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	token, err := IssueAdminToken(h.JWTSecret, admin.Username, ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResp{Success: true, Username: admin.Username, Token: token})
}
