package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Collection names accepted by the API
const (
	CollectionServices         = "services"
	CollectionPlatforms        = "platforms"
	CollectionPackages         = "packages"
	CollectionOrders           = "orders"
	CollectionAnalytics        = "analytics"
	CollectionPaymentSettings  = "payment_settings"
	CollectionMostRequested    = "most_requested"
	CollectionAdminCredentials = "admin_credentials"

	// CollectionData backs the write-protected /api/data route. It is not
	// part of the whitelist.
	CollectionData = "data"
)

// KnownCollections lists the whitelisted collection names in a stable order
var KnownCollections = []string{
	CollectionServices,
	CollectionPlatforms,
	CollectionPackages,
	CollectionOrders,
	CollectionAnalytics,
	CollectionPaymentSettings,
	CollectionMostRequested,
	CollectionAdminCredentials,
}

// IsKnownCollection reports whether name is whitelisted
func IsKnownCollection(name string) bool {
	for _, known := range KnownCollections {
		if known == name {
			return true
		}
	}
	return false
}

// Record is one JSON object stored in a collection. The only required key is "id".
type Record map[string]interface{}

// ID returns the record id in its canonical string form, or "" if missing
func (r Record) ID() string {
	return NormalizeID(r["id"])
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every field of updates over a copy of r. Fields not present
// in updates keep their previous values.
func (r Record) Merge(updates Record) Record {
	out := r.Clone()
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// NormalizeID converts an id value decoded from JSON into a string.
// Strings are returned as-is, numbers in their shortest decimal form.
func NormalizeID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return ""
	}
}

// DecodeRecord parses a single JSON object, keeping numbers as json.Number
// so values round-trip without float conversion.
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return rec, nil
}

// DecodeRecords parses a JSON array of objects. Elements that are not objects
// are rejected.
func DecodeRecords(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	if raw == nil {
		// "null" is stored by some clients for an empty collection
		return []Record{}, nil
	}

	records := make([]Record, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("element %d is not a JSON object", i)
		}
		records = append(records, Record(obj))
	}
	return records, nil
}

func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// EncodeRecords marshals records as a JSON array, never "null"
func EncodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records)
}

// CopyRecords deep-copies records through JSON so callers cannot alias stored state
func CopyRecords(records []Record) ([]Record, error) {
	data, err := EncodeRecords(records)
	if err != nil {
		return nil, err
	}
	return DecodeRecords(data)
}

// Timestamp formats t the way records carry createdAt/updatedAt
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Prices holds a per-currency amount
type Prices struct {
	SAR float64 `json:"SAR" validate:"gte=0"`
	EGP float64 `json:"EGP" validate:"gte=0"`
	USD float64 `json:"USD" validate:"gte=0"`
}

// Service is a purchasable growth service
type Service struct {
	ID              string  `json:"id"`
	Title           string  `json:"title,omitempty"`
	Description     string  `json:"description,omitempty"`
	FullDescription string  `json:"fullDescription,omitempty"`
	Prices          *Prices `json:"prices,omitempty" validate:"omitempty"`
	DeliveryTime    string  `json:"deliveryTime,omitempty"`
	Guarantee       string  `json:"guarantee,omitempty"`
	Image           string  `json:"image,omitempty"`
	Platform        string  `json:"platform,omitempty"`
	ServiceType     string  `json:"serviceType,omitempty"`
	Visible         *bool   `json:"visible,omitempty"`
}

// Platform is a social network grouping services
type Platform struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Color       string `json:"color,omitempty"`
}

// PackageOption is a fixed-quantity tier of a service
type PackageOption struct {
	ID          string   `json:"id"`
	ServiceID   string   `json:"serviceId,omitempty"`
	Units       *float64 `json:"units,omitempty" validate:"omitempty,gte=0"`
	Price       *Prices  `json:"price,omitempty" validate:"omitempty"`
	Visible     *bool    `json:"visible,omitempty"`
	OrderIndex  *float64 `json:"orderIndex,omitempty"`
	Label       string   `json:"label,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Order status values
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is a customer purchase awaiting manual payment confirmation
type Order struct {
	ID                string   `json:"id"`
	ServiceID         string   `json:"serviceId,omitempty"`
	ServiceName       string   `json:"serviceName,omitempty"`
	Platform          string   `json:"platform,omitempty"`
	AccountURL        string   `json:"accountUrl,omitempty"`
	Quantity          *float64 `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	WhatsappNumber    string   `json:"whatsappNumber,omitempty"`
	Price             *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Currency          string   `json:"currency,omitempty" validate:"omitempty,oneof=SAR EGP USD"`
	PaymentMethod     string   `json:"paymentMethod,omitempty"`
	PaymentScreenshot string   `json:"paymentScreenshot,omitempty"`
	Status            string   `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	CreatedAt         string   `json:"createdAt,omitempty"`
}

// AnalyticsEvent is one storefront interaction
type AnalyticsEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type,omitempty" validate:"omitempty,oneof=page_view service_click add_to_cart purchase refund"`
	ServiceID string                 `json:"serviceId,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// PaymentMethod is one manual transfer destination
type PaymentMethod struct {
	ID            string `json:"id"`
	Method        string `json:"method,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	QRURL         string `json:"qr_url"`
	Currency      string `json:"currency,omitempty" validate:"omitempty,oneof=SAR EGP USD"`
}

// MostRequested pins a service to the storefront highlight list
type MostRequested struct {
	ID        string   `json:"id"`
	ServiceID string   `json:"serviceId,omitempty"`
	Visible   *bool    `json:"visible,omitempty"`
	Position  *float64 `json:"position,omitempty" validate:"omitempty,gte=0"`
}

// AdminCredential is a username with either a plaintext password or a bcrypt hash
type AdminCredential struct {
	ID           string `json:"id"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// PaymentSettings is the flattened view of the three built-in payment methods
type PaymentSettings struct {
	StcPayNumber   string `json:"stcPayNumber"`
	AlRajhiAccount string `json:"alRajhiAccount"`
	VodafoneCash   string `json:"vodafoneCash"`
	StcPayQr       string `json:"stcPayQr,omitempty"`
	AlRajhiQr      string `json:"alRajhiQr,omitempty"`
	VodafoneQr     string `json:"vodafoneQr,omitempty"`
}

// ListResponse is returned by GET
type ListResponse struct {
	OK   bool     `json:"ok"`
	Data []Record `json:"data"`
}

// ItemResponse is returned by POST and PUT
type ItemResponse struct {
	OK   bool   `json:"ok"`
	Item Record `json:"item"`
}

// DeleteResponse is returned by DELETE
type DeleteResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// LoginRequest is the body of POST /api/admin/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Change event types
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
	EventSeed   = "seed"
)

// ChangeEvent represents a change notification for SSE
type ChangeEvent struct {
	EventType  string    `json:"event_type"` // insert, update, delete, seed
	Collection string    `json:"collection"`
	RecordID   string    `json:"record_id,omitempty"`
	Item       Record    `json:"item,omitempty"`
	Count      int       `json:"count,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
