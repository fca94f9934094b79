package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/models"
)

// AdminLogin handles POST /api/admin/login.
// Credentials are checked against the admin_credentials collection, which is
// seeded with the default admin on first use.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Missing credentials")
		return
	}

	records, err := h.service.List(r.Context(), models.CollectionAdminCredentials)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	for _, rec := range records {
		if username, _ := rec["username"].(string); username != req.Username {
			continue
		}
		if checkPassword(rec, req.Password) {
			respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
	}

	h.log.WithFields(logrus.Fields{
		"username":    req.Username,
		"remote_addr": r.RemoteAddr,
	}).Warn("Admin login rejected")
	respondError(w, http.StatusUnauthorized, "Invalid credentials")
}

// checkPassword prefers a bcrypt passwordHash over a plaintext password
func checkPassword(rec models.Record, password string) bool {
	if hash, _ := rec["passwordHash"].(string); hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	stored, _ := rec["password"].(string)
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// secretFields never leave the server in list responses
var secretFields = []string{"password", "passwordHash"}

// maskCredentials returns copies of the records without their secrets
func maskCredentials(records []models.Record) []models.Record {
	masked := make([]models.Record, 0, len(records))
	for _, rec := range records {
		out := make(models.Record, len(rec))
		for k, v := range rec {
			out[k] = v
		}
		for _, field := range secretFields {
			delete(out, field)
		}
		masked = append(masked, out)
	}
	return masked
}
