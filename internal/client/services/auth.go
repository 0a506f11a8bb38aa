// Package services contains the portal workflows used by the CLI.
// This file defines the authentication service: session restore and probe,
// login, and the single-shot reauthentication used on session loss.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tjuecard/internal/client/client"
	"github.com/dmitrijs2005/tjuecard/internal/client/htmlx"
	"github.com/dmitrijs2005/tjuecard/internal/client/oracle"
	"github.com/dmitrijs2005/tjuecard/internal/client/repositories/session"
	"github.com/dmitrijs2005/tjuecard/internal/common"
	"github.com/dmitrijs2005/tjuecard/internal/logging"
)

// AuthState tracks where the current run is in the session lifecycle.
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	// StateTentative: a saved session was restored but not yet probed.
	StateTentative
	StateAuthenticated
	StateExpired
	// StateFailed is terminal for the run; no further logins are attempted.
	StateFailed
)

func (s AuthState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateTentative:
		return "tentative"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// AuthService defines portal authentication for one run.
//
// Contract:
//   - ProbeSessionValidity: cheap authenticated GET; any doubt means invalid.
//   - Login: one login-form round trip with the given credentials.
//   - Reauthenticate: fetch stored credentials, drop the current cookies,
//     Login exactly once, persist the new session. Failure is terminal for the run.
//   - EnsureSession: restore the saved session, probe it and reauthenticate
//     if needed.
type AuthService interface {
	ProbeSessionValidity(ctx context.Context) bool
	Login(ctx context.Context, username string, password []byte) error
	Reauthenticate(ctx context.Context) error
	EnsureSession(ctx context.Context) error
	State() AuthState
}

type authService struct {
	client   client.Client
	sessions session.Repository
	creds    CredentialProvider
	log      logging.Logger

	probe   oracle.SessionHealthOracle
	landing oracle.SessionHealthOracle

	state   AuthState
	failure error
}

// NewAuthService wires the service with the stock login-form probe oracle and
// frameset landing oracle.
func NewAuthService(c client.Client, sessions session.Repository, creds CredentialProvider, log logging.Logger) AuthService {
	return &authService{
		client:   c,
		sessions: sessions,
		creds:    creds,
		log:      log,
		probe:    oracle.NewLoginFormOracle(),
		landing:  oracle.NewFramesetOracle(),
		state:    StateUnauthenticated,
	}
}

func (a *authService) State() AuthState {
	return a.state
}

func (a *authService) ProbeSessionValidity(ctx context.Context) bool {
	body, err := a.client.GetProbePage(ctx)
	if err != nil {
		a.log.Warn(ctx, "session probe failed", "error", err)
		return false
	}
	if !a.probe.Healthy(body) {
		a.log.Warn(ctx, "session expired")
		return false
	}
	return true
}

func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	page, err := a.client.GetLoginPage(ctx)
	if err != nil {
		return fmt.Errorf("%w: login page: %v", common.ErrAuthNetworkFailure, err)
	}

	token, err := htmlx.InputToken(page)
	if err != nil {
		return fmt.Errorf("login page: %w", err)
	}

	body, err := a.client.PostLogin(ctx, username, password, token)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrAuthNetworkFailure, err)
	}

	if !a.landing.Healthy(body) {
		return common.ErrAuthInvalidCredentials
	}
	return nil
}

func (a *authService) Reauthenticate(ctx context.Context) error {
	if a.state == StateFailed {
		return a.failure
	}

	username, password, err := a.creds.Credentials(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}
	defer common.WipeByteArray(password)

	// a still-live server session hides the login form
	if err := a.client.ResetSession(); err != nil {
		return a.fail(ctx, err)
	}

	a.log.Info(ctx, "logging in", "username", username)
	if err := a.Login(ctx, username, password); err != nil {
		return a.fail(ctx, err)
	}

	if err := a.sessions.Save(ctx, a.client.ExportSession()); err != nil {
		// the login itself worked; the next run will simply log in again
		a.log.Warn(ctx, "session not persisted", "error", err)
	}

	a.state = StateAuthenticated
	a.log.Info(ctx, "login succeeded")
	return nil
}

func (a *authService) fail(ctx context.Context, err error) error {
	a.state = StateFailed
	a.failure = fmt.Errorf("reauthenticate: %w", err)
	a.log.Error(ctx, "login failed", "error", err)
	return a.failure
}

func (a *authService) EnsureSession(ctx context.Context) error {
	saved, err := a.sessions.Load(ctx)
	if err != nil {
		a.log.Warn(ctx, "saved session unreadable", "error", err)
		saved = nil
	}

	if saved.Empty() {
		a.log.Info(ctx, "no saved session")
		return a.Reauthenticate(ctx)
	}

	a.client.ImportSession(saved)
	a.state = StateTentative

	if a.ProbeSessionValidity(ctx) {
		a.state = StateAuthenticated
		a.log.Info(ctx, "saved session accepted")
		return nil
	}

	a.state = StateExpired
	return a.Reauthenticate(ctx)
}
