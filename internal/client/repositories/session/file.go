package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/filex"
)

type FileRepository struct {
	path string
	now  func() time.Time
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path, now: time.Now}
}

// Save overwrites the session file. Version and SavedAt are stamped here.
func (r *FileRepository) Save(ctx context.Context, s *models.Session) error {
	if s == nil {
		return fmt.Errorf("save session: nil session")
	}

	out := *s
	out.Version = models.SessionVersion
	out.SavedAt = r.now().UTC()

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := filex.WriteFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load never fails: a missing, unreadable, corrupt or foreign-version file
// yields (nil, nil).
func (r *FileRepository) Load(ctx context.Context) (*models.Session, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, nil
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil
	}
	if s.Version != models.SessionVersion || s.Empty() {
		return nil, nil
	}
	return &s, nil
}
