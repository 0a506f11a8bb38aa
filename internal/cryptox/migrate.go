package cryptox

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tjuecard/internal/filex"
)

// plaintextField names a secret that older configs stored in clear text.
type plaintextField struct {
	section string
	field   string
}

var migratedFields = []plaintextField{
	{section: "credentials", field: "password"},
	{section: "email_notifier", field: "auth_code"},
}

// MigratePlaintextFields rewrites the config at path so that every known
// plaintext secret is replaced by its "<field>_enc" counterpart. Unknown
// keys are preserved. The file is only rewritten when something changed,
// which makes repeated calls no-ops.
//
// A missing file is not an error (nothing to migrate). Callers should log a
// returned error and carry on with the unchanged config.
func (s *Store) MigratePlaintextFields(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read config: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("parse config: %w", err)
	}

	changed := false
	for _, f := range migratedFields {
		section, ok := doc[f.section].(map[string]any)
		if !ok {
			continue
		}
		if _, done := section[f.field+"_enc"]; done {
			continue
		}
		plain, ok := section[f.field].(string)
		if !ok || plain == "" {
			continue
		}

		secret, err := s.EncryptString(plain)
		if err != nil {
			return false, fmt.Errorf("encrypt %s.%s: %w", f.section, f.field, err)
		}
		section[f.field+"_enc"] = secret
		delete(section, f.field)
		changed = true
	}

	if !changed {
		return false, nil
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode config: %w", err)
	}
	if err := filex.WriteFileAtomic(path, out, 0o600); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
