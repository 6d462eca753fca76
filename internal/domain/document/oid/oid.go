// Package oid validates and generates document identifiers.
//
// Identifiers follow the 12-byte ObjectID convention and travel as 24 hex digits.
package oid

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Len is the length of a hex-encoded identifier.
const Len = 24

// ID is a validated, hex-encoded identifier.
type ID string

// Valid reports whether s is a well-formed identifier. It never fails.
func Valid(s string) bool {
	if len(s) != Len {
		return false
	}
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// Parse returns s as a lower-case ID, or false when it is malformed.
func Parse(s string) (ID, bool) {
	if !Valid(s) {
		return "", false
	}
	return ID(strings.ToLower(s)), true
}

// New generates a fresh identifier. Identifiers sort by creation time.
func New() ID {
	return ID(primitive.NewObjectID().Hex())
}

// String returns the hex form.
func (id ID) String() string { return string(id) }

// ObjectID converts the identifier to the driver type.
func (id ID) ObjectID() primitive.ObjectID {
	o, _ := primitive.ObjectIDFromHex(string(id))
	return o
}
