package client

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
)

// Portal paths, relative to the base URL.
const (
	LoginPagePath     = "/epay/person/index"
	LoginPath         = "/epay/j_spring_security_check"
	ProbePath         = "/epay/person/index"
	ElectricIndexPath = "/epay/electric/load4electricindex"
	BillPagePath      = "/epay/electric/load4electricbill"
	QueryPath         = "/epay/electric/queryelectricbill"
)

type Client interface {
	// BaseURL is the portal origin, e.g. "http://59.67.37.10:8180".
	BaseURL() string

	GetLoginPage(ctx context.Context) ([]byte, error)
	PostLogin(ctx context.Context, username string, password []byte, token string) ([]byte, error)
	GetProbePage(ctx context.Context) ([]byte, error)

	GetElectricIndex(ctx context.Context) ([]byte, error)
	GetBillPage(ctx context.Context, systemID string) ([]byte, error)
	PostQuery(ctx context.Context, systemID string, form url.Values, token string) ([]byte, error)
	PostOptions(ctx context.Context, endpoint string, systemID string, form url.Values, token string) ([]byte, error)

	ExportSession() *models.Session
	ImportSession(s *models.Session)
	// ResetSession drops every cookie so the next request starts anonymous.
	ResetSession() error
}
