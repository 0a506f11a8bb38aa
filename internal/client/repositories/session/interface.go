// Package session persists the portal cookie set between runs.
package session

import (
	"context"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
)

// Repository stores the most recent portal session.
//
// Load returns (nil, nil) when there is nothing usable on disk; callers treat
// that the same as "never logged in". An encrypting implementation can wrap
// this interface without touching its callers.
type Repository interface {
	Save(ctx context.Context, s *models.Session) error
	Load(ctx context.Context) (*models.Session, error)
}
