package collection

import (
	"fmt"
	"strings"
)

// DefaultDatabase is addressed when a request names no database.
const DefaultDatabase = "cegep_bd1"

const (
	maxDatabaseLen   = 63
	maxCollectionLen = 255
)

// forbiddenInDatabase lists characters document stores reject in database names.
const forbiddenInDatabase = "/\\. \"$*<>:|?\x00"

// Ref addresses one collection inside one database (immutable value object).
type Ref struct {
	database string
	name     string
}

// NewRef validates and creates a Ref. An empty database selects defaultDatabase;
// a database that is present but blank is rejected.
func NewRef(database, name, defaultDatabase string) (Ref, error) {
	if database == "" {
		database = defaultDatabase
	}
	if err := ValidateDatabase(database); err != nil {
		return Ref{}, err
	}
	if err := validateName(name); err != nil {
		return Ref{}, err
	}
	return Ref{database: database, name: name}, nil
}

// ValidateDatabase checks a database name.
func ValidateDatabase(database string) error {
	if strings.TrimSpace(database) == "" {
		return fmt.Errorf("database name must not be blank")
	}
	if len(database) > maxDatabaseLen {
		return fmt.Errorf("database name too long (max %d)", maxDatabaseLen)
	}
	if i := strings.IndexAny(database, forbiddenInDatabase); i >= 0 {
		return fmt.Errorf("database name must not contain %q", database[i])
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > maxCollectionLen {
		return fmt.Errorf("collection name too long (max %d)", maxCollectionLen)
	}
	if strings.ContainsAny(name, "$\x00") {
		return fmt.Errorf("collection name must not contain '$' or NUL")
	}
	if strings.HasPrefix(name, "system.") {
		return fmt.Errorf("collection name must not start with 'system.'")
	}
	return nil
}

// Database returns the database name.
func (r Ref) Database() string { return r.database }

// Name returns the collection name.
func (r Ref) Name() string { return r.name }

func (r Ref) String() string { return r.database + "." + r.name }
