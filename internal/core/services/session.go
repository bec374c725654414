package services

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// NewSession starts an empty chat session.
func NewSession() *domain.Session {
	return &domain.Session{ID: uuid.New().String()}
}
