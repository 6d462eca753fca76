package mongodb

import "go.mongodb.org/mongo-driver/mongo"

// NewStoreForTest creates a Store with the provided client (test-only).
func NewStoreForTest(c *mongo.Client) *Store {
	return &Store{client: c}
}
