package service

import "github.com/google/uuid"

// UUIDGenerator is an interface for generating UUIDs (allows mocking in tests)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator uses google/uuid
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
