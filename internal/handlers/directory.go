package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clinicflow/clinicflow/internal/model"
	"github.com/clinicflow/clinicflow/internal/storage"
)

// DirectoryHandler serves the reference lists the booking form is built from.
// Reads are open to every authenticated role; writes are admin only.
type DirectoryHandler struct {
	directory *storage.DirectoryRepository
	logger    *slog.Logger
}

func NewDirectoryHandler(directory *storage.DirectoryRepository, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{directory: directory, logger: logger}
}

func (h *DirectoryHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return false
	}
	if claims.Role != "admin" {
		writeError(w, http.StatusForbidden, "admin only")
		return false
	}
	return true
}

type centerItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

func (h *DirectoryHandler) Centers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		centers, err := h.directory.ListCenters(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db error")
			return
		}
		items := make([]centerItem, 0, len(centers))
		for _, c := range centers {
			items = append(items, centerItem{ID: c.ID, Name: c.Name, Address: c.Address})
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		var req centerItem
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name required")
			return
		}
		id, err := h.directory.CreateCenter(r.Context(), model.Center{Name: req.Name, Address: strings.TrimSpace(req.Address)})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create center")
			return
		}
		req.ID = id
		writeJSON(w, http.StatusCreated, req)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type clinicItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *DirectoryHandler) Clinics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	clinics, err := h.directory.ListClinics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	items := make([]clinicItem, 0, len(clinics))
	for _, c := range clinics {
		items = append(items, clinicItem{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, items)
}

type doctorItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

func (h *DirectoryHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doctors, err := h.directory.ListDoctors(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db error")
			return
		}
		items := make([]doctorItem, 0, len(doctors))
		for _, d := range doctors {
			items = append(items, doctorItem{ID: d.ID, Name: d.Name, Role: d.Role})
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		var req doctorItem
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name required")
			return
		}
		id, err := h.directory.CreateDoctor(r.Context(), model.Doctor{Name: req.Name, Role: strings.TrimSpace(req.Role)})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create doctor")
			return
		}
		req.ID = id
		writeJSON(w, http.StatusCreated, req)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type serviceItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Price      int    `json:"price"`
	Additional bool   `json:"additional"`
}

func (h *DirectoryHandler) Services(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		services, err := h.directory.ListServices(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db error")
			return
		}
		items := make([]serviceItem, 0, len(services))
		for _, s := range services {
			items = append(items, serviceItem{ID: s.ID, Name: s.Name, Price: s.Price, Additional: s.Additional})
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		var req serviceItem
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.Price < 0 {
			writeError(w, http.StatusBadRequest, "name and non-negative price required")
			return
		}
		id, err := h.directory.CreateService(r.Context(), model.Service{Name: req.Name, Price: req.Price, Additional: req.Additional})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create service")
			return
		}
		req.ID = id
		writeJSON(w, http.StatusCreated, req)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type paymentMethodItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Billable bool   `json:"billable"`
}

func (h *DirectoryHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		methods, err := h.directory.ListPaymentMethods(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db error")
			return
		}
		items := make([]paymentMethodItem, 0, len(methods))
		for _, m := range methods {
			items = append(items, paymentMethodItem{ID: m.ID, Name: m.Name, Billable: m.Billable})
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		var req paymentMethodItem
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name required")
			return
		}
		id, err := h.directory.CreatePaymentMethod(r.Context(), model.PaymentMethod{Name: req.Name, Billable: req.Billable})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create payment method")
			return
		}
		req.ID = id
		writeJSON(w, http.StatusCreated, req)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
