package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinicflow/clinicflow/internal/storage"
	"github.com/clinicflow/clinicflow/libs/auth"
)

type AuthHandler struct {
	users     *storage.UserRepository
	secret    string
	accessTTL time.Duration
}

func NewAuthHandler(users *storage.UserRepository, secret string, accessTTL time.Duration) *AuthHandler {
	if accessTTL <= 0 {
		accessTTL = 12 * time.Hour
	}
	return &AuthHandler{users: users, secret: secret, accessTTL: accessTTL}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type meResponse struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	CenterID string `json:"center_id,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := time.Now()
	claims := auth.Claims{
		Sub:  user.ID,
		Role: user.Role,
		Exp:  now.Add(h.accessTTL).Unix(),
		Iat:  now.Unix(),
	}
	if user.CenterID != nil {
		claims.CenterID = *user.CenterID
	}
	token, err := auth.SignHS256(claims, h.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		UserID:   claims.Sub,
		Role:     claims.Role,
		CenterID: claims.CenterID,
	})
}
