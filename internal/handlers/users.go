package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinicflow/clinicflow/internal/model"
	"github.com/clinicflow/clinicflow/internal/storage"
)

var validRoles = map[string]bool{
	"admin":    true,
	"org":      true,
	"doctor":   true,
	"lab_tech": true,
}

type UserHandler struct {
	users *storage.UserRepository
}

func NewUserHandler(users *storage.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	CenterID *string `json:"center_id"`
}

// Create registers a staff account. Admin only.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}
	if claims.Role != "admin" {
		writeError(w, http.StatusForbidden, "admin only")
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "email and password (8+ chars) required")
		return
	}
	if !validRoles[req.Role] {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	id, err := h.users.Create(r.Context(), model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		CenterID:     req.CenterID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "email": req.Email, "role": req.Role})
}
