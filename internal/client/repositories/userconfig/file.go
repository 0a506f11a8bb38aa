package userconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/common"
	"github.com/dmitrijs2005/tjuecard/internal/filex"
	"github.com/go-playground/validator/v10"
)

type FileRepository struct {
	path     string
	validate *validator.Validate
}

func NewFileRepository(path string) *FileRepository {
	v := validator.New()

	// report json names ("selection.buis.id") rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	return &FileRepository{path: path, validate: v}
}

func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and validates the config.
//
// Errors:
//   - common.ErrConfigMissing when the file does not exist;
//   - *common.ConfigError (matches common.ErrConfigInvalid) for unreadable
//     JSON or the first failing field.
func (r *FileRepository) Load(ctx context.Context) (*models.UserConfig, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrConfigMissing, r.path)
		}
		return nil, &common.ConfigError{Field: r.path, Reason: err.Error()}
	}

	var cfg models.UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &common.ConfigError{Field: r.path, Reason: "not valid JSON: " + err.Error()}
	}

	if err := r.check(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *FileRepository) check(cfg *models.UserConfig) error {
	err := r.validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return &common.ConfigError{Field: "config", Reason: err.Error()}
	}

	first := validationErrs[0]
	field := first.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	reason := fmt.Sprintf("failed validation for %s", first.Tag())
	if first.Tag() == "required" {
		if first.Kind() == reflect.String {
			reason = "must not be empty"
		} else {
			reason = "is missing"
		}
	}
	return &common.ConfigError{Field: field, Reason: reason}
}

// Save writes cfg as indented JSON with owner-only permissions.
func (r *FileRepository) Save(ctx context.Context, cfg *models.UserConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := filex.WriteFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
