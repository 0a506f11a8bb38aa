package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/common"
	"github.com/dmitrijs2005/tjuecard/internal/cryptox"
)

// Decrypter opens an EncryptedSecret. *cryptox.Store satisfies it.
type Decrypter interface {
	Decrypt(secret *cryptox.EncryptedSecret) ([]byte, error)
}

// CredentialProvider hands out the portal login for one attempt. The caller
// owns the returned password and wipes it when done.
type CredentialProvider interface {
	Credentials(ctx context.Context) (username string, password []byte, err error)
}

type configCredentials struct {
	creds models.Credentials
	dec   Decrypter
}

// NewConfigCredentials serves the credentials stored in the user config,
// decrypting password_enc on demand. A legacy plaintext password is used as
// is when no encrypted form exists.
func NewConfigCredentials(creds models.Credentials, dec Decrypter) CredentialProvider {
	return &configCredentials{creds: creds, dec: dec}
}

func (p *configCredentials) Credentials(ctx context.Context) (string, []byte, error) {
	if p.creds.Username == "" || !p.creds.HasPassword() {
		return "", nil, common.ErrCredentialsMissing
	}

	if p.creds.PasswordEnc != nil {
		pw, err := p.dec.Decrypt(p.creds.PasswordEnc)
		if err != nil {
			return "", nil, fmt.Errorf("decrypt password: %w", err)
		}
		return p.creds.Username, pw, nil
	}
	return p.creds.Username, []byte(p.creds.Password), nil
}

// StaticCredentials serves a login typed in by the user, as setup does.
type StaticCredentials struct {
	Username string
	Password []byte
}

func (s StaticCredentials) Credentials(ctx context.Context) (string, []byte, error) {
	if s.Username == "" || len(s.Password) == 0 {
		return "", nil, common.ErrCredentialsMissing
	}
	return s.Username, append([]byte(nil), s.Password...), nil
}
