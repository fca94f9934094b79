package store

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name        string
		collection  string
		shouldError bool
		errorMsg    string
	}{
		// Valid names
		{
			name:        "simple lowercase",
			collection:  "services",
			shouldError: false,
		},
		{
			name:        "with underscore",
			collection:  "payment_settings",
			shouldError: false,
		},
		{
			name:        "starting with underscore",
			collection:  "_internal",
			shouldError: false,
		},
		{
			name:        "with numbers",
			collection:  "orders_2024",
			shouldError: false,
		},
		{
			name:        "max length",
			collection:  strings.Repeat("a", 64),
			shouldError: false,
		},

		// Invalid names - empty/too long
		{
			name:        "empty string",
			collection:  "",
			shouldError: true,
			errorMsg:    "cannot be empty",
		},
		{
			name:        "too long",
			collection:  strings.Repeat("a", 65),
			shouldError: true,
			errorMsg:    "too long",
		},

		// Invalid names - could escape the storage directory or key space
		{
			name:        "starting with number",
			collection:  "123orders",
			shouldError: true,
			errorMsg:    "must start with letter or underscore",
		},
		{
			name:        "path traversal",
			collection:  "../secrets",
			shouldError: true,
			errorMsg:    "must start with letter or underscore",
		},
		{
			name:        "with slash",
			collection:  "orders/archive",
			shouldError: true,
			errorMsg:    "must start with letter or underscore",
		},
		{
			name:        "with dot",
			collection:  "orders.json",
			shouldError: true,
			errorMsg:    "must start with letter or underscore",
		},
		{
			name:        "with colon",
			collection:  "data:ids",
			shouldError: true,
			errorMsg:    "must start with letter or underscore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.collection)
			if tt.shouldError {
				if err == nil {
					t.Errorf("ValidateName(%q) error = nil, want error", tt.collection)
					return
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("ValidateName(%q) error = %v, want error containing %q", tt.collection, err, tt.errorMsg)
				}
			} else if err != nil {
				t.Errorf("ValidateName(%q) error = %v, want nil", tt.collection, err)
			}
		})
	}
}
