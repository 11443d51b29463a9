package dataaccess

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool.
var MongoDB *mongo.Client

const mongoDatabase = "tick"

var (
	// ErrNotFound is returned when exactly one document was expected and none
	// was found.
	ErrNotFound = errors.New("document not found")

	// ErrMultipleFound is returned when exactly one document was expected and
	// more than one was found.
	ErrMultipleFound = errors.New("multiple documents found")
)
