package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/collection"
	"storefront/internal/events"
	"storefront/internal/models"
)

// maxBodyBytes bounds request bodies; orders may carry a screenshot data URL
const maxBodyBytes = 10 << 20

// Handler holds dependencies for API handlers
type Handler struct {
	service      *collection.Service
	broadcaster  *events.Broadcaster
	backend      string
	log          logrus.FieldLogger
	pingInterval time.Duration
}

// NewHandler creates a new API handler
func NewHandler(service *collection.Service, broadcaster *events.Broadcaster, backend string, log logrus.FieldLogger) *Handler {
	return &Handler{
		service:      service,
		broadcaster:  broadcaster,
		backend:      backend,
		log:          log,
		pingInterval: 15 * time.Second,
	}
}

// ListRecords handles GET /api/json/{collection}.
// Query parameters filter on gjson paths, e.g. ?platform=instagram&status=pending.
// Parameters starting with an underscore are ignored.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	name := collectionFromContext(r)

	records, err := h.service.List(r.Context(), name)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	records = collection.FiltersFromQuery(r.URL.Query()).Apply(records)
	if name == models.CollectionAdminCredentials {
		records = maskCredentials(records)
	}
	respondJSON(w, http.StatusOK, models.ListResponse{OK: true, Data: records})
}

// CreateRecord handles POST /api/json/{collection}
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	name := collectionFromContext(r)

	body, err := decodeBody(w, r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	item, err := h.service.Create(r.Context(), name, body)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, models.ItemResponse{OK: true, Item: item})
}

// UpdateRecord handles PUT /api/json/{collection}
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	name := collectionFromContext(r)

	body, err := decodeBody(w, r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	item, err := h.service.Update(r.Context(), name, body)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.ItemResponse{OK: true, Item: item})
}

// DeleteRecord handles DELETE /api/json/{collection} with body {"id": ...}
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	name := collectionFromContext(r)

	body, err := decodeBody(w, r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	id := models.NormalizeID(body["id"])
	if err := h.service.Delete(r.Context(), name, id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.DeleteResponse{OK: true, ID: id})
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"status":  "healthy",
		"backend": h.backend,
	})
}

// errBodyTooLarge is reported when a body exceeds maxBodyBytes
var errBodyTooLarge = errors.New("request body too large")

// decodeBody reads a JSON object body. Anything else is ErrInvalidBody.
func decodeBody(w http.ResponseWriter, r *http.Request) (models.Record, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, collection.ErrInvalidBody
	}

	body, err := models.DecodeRecord(data)
	if err != nil {
		return nil, collection.ErrInvalidBody
	}
	return body, nil
}

// respondServiceError maps service errors onto HTTP responses
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *models.ValidationError

	switch {
	case errors.Is(err, collection.ErrInvalidCollection):
		respondError(w, http.StatusBadRequest, "Invalid collection")
	case errors.Is(err, collection.ErrInvalidBody):
		respondError(w, http.StatusBadRequest, "Invalid body")
	case errors.Is(err, collection.ErrMissingID):
		respondError(w, http.StatusBadRequest, "Missing id")
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, collection.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, collection.ErrDuplicateID):
		respondError(w, http.StatusConflict, "Duplicate id")
	case errors.Is(err, errBodyTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		h.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"collection": collectionFromContext(r),
			"error":      err,
		}).Error("Collection operation failed")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{OK: false, Error: message})
}
