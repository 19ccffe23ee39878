// Package idgen mints record identifiers on the client so that a record can be
// created and referenced before the server has seen it.
//
// Identifiers follow the ObjectId layout (4-byte timestamp, 5-byte process
// random, 3-byte counter) rendered as 24 lowercase hex characters. The
// reference backend mints ids with the same generator, so a client-created
// record has the same shape as a server-created one. The timestamp prefix
// biases ids toward insertion order; the counter is atomic, so concurrent
// callers never collide inside one process.
package idgen

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Generator produces unique identifiers.
type Generator interface {
	Generate() string
}

// ObjectIDGenerator is the default Generator.
type ObjectIDGenerator struct{}

// New returns the default generator.
func New() ObjectIDGenerator {
	return ObjectIDGenerator{}
}

// Generate returns a fresh 24-character hex identifier.
func (ObjectIDGenerator) Generate() string {
	return primitive.NewObjectID().Hex()
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) Generate() string { return f() }

// IsValid reports whether id has the generator's shape.
func IsValid(id string) bool {
	return primitive.IsValidObjectID(id)
}
