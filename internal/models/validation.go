package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes a record field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("field '%s' %s", e.Field, e.Message)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report JSON field names rather than Go field names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// shapes maps a collection name to a constructor for its typed record shape
var shapes = map[string]func() interface{}{
	CollectionServices:         func() interface{} { return &Service{} },
	CollectionPlatforms:        func() interface{} { return &Platform{} },
	CollectionPackages:         func() interface{} { return &PackageOption{} },
	CollectionOrders:           func() interface{} { return &Order{} },
	CollectionAnalytics:        func() interface{} { return &AnalyticsEvent{} },
	CollectionPaymentSettings:  func() interface{} { return &PaymentMethod{} },
	CollectionMostRequested:    func() interface{} { return &MostRequested{} },
	CollectionAdminCredentials: func() interface{} { return &AdminCredential{} },
}

// ValidateRecord checks a record against the shape of its collection.
// Fields that are present must have the right type and value; absent fields
// are never required. Collections without a known shape accept any record.
func ValidateRecord(collection string, rec Record) error {
	newShape, ok := shapes[collection]
	if !ok {
		return nil
	}

	// Numeric ids are legal; check them in their string form
	if id := rec.ID(); id != "" {
		rec = rec.Clone()
		rec["id"] = id
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return &ValidationError{Message: "record is not serializable: " + err.Error()}
	}

	shape := newShape()
	if err := json.Unmarshal(data, shape); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("must be a %s, got %s", typeErr.Type.Kind(), typeErr.Value),
			}
		}
		return &ValidationError{Message: "invalid record: " + err.Error()}
	}

	if err := getValidator().Struct(shape); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			// Namespace is "Shape.field.sub"; drop the struct name
			field := fe.Namespace()
			if i := strings.Index(field, "."); i >= 0 {
				field = field[i+1:]
			}
			return &ValidationError{Field: field, Message: describeTag(fe)}
		}
		return &ValidationError{Message: err.Error()}
	}

	return nil
}

// describeTag renders a validator failure in plain words
func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got '%v'", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed '%s' validation", fe.Tag())
	}
}
