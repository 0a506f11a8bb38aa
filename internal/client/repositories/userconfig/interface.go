// Package userconfig loads, validates and saves user_config.json: the portal
// credentials, the six-level room selection and the optional mail settings.
package userconfig

import (
	"context"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
)

type Repository interface {
	// Load returns a fully validated config or (nil, err); it never returns
	// a partially populated selection.
	Load(ctx context.Context) (*models.UserConfig, error)
	Save(ctx context.Context, cfg *models.UserConfig) error
	Path() string
}
