package store

import (
	"fmt"
	"regexp"
)

const maxNameLength = 64

var (
	// namePattern matches collection names: alphanumeric and underscore, starting with letter or underscore
	namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// ValidateName checks that a collection name is safe to use as a file name,
// key or row identifier.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	if len(name) > maxNameLength {
		return fmt.Errorf("collection name too long (max %d characters)", maxNameLength)
	}

	if !namePattern.MatchString(name) {
		return fmt.Errorf("collection name must start with letter or underscore and contain only alphanumeric characters and underscores")
	}

	return nil
}
