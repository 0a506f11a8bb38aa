package services

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/cryptox"
)

// ---- fake client ----

const (
	loginPageHTML   = `<form action="/epay/j_spring_security_check"><input name="j_username"><input type="hidden" name="_csrf" value="login-tok"></form>`
	framesetHTML    = `<html><frameset rows="80,*"><frame src="top"></frameset></html>`
	badLoginHTML    = `<html><body>bad credentials <input name="j_username"></body></html>`
	personalHTML    = `<html><body>welcome</body></html>`
	billPageHTML    = `<html><head><meta name="_csrf" content="bill-tok"></head></html>`
	billPageNoToken = `<html><body>please log in</body></html>`
)

// fakeClient implements client.Client for service tests. Slices of bodies
// are consumed one per call; the last element repeats.
type fakeClient struct {
	LoginPage    []byte
	LoginPageErr error

	PostLoginBody []byte
	PostLoginErr  error

	ProbeBody []byte
	ProbeErr  error

	IndexBody []byte
	IndexErr  error

	BillPages   [][]byte
	BillPageErr error

	QueryBody []byte
	QueryErr  error

	OptionsBody []byte
	OptionsErr  error

	Exported *models.Session
	ResetErr error

	// call records
	LoginCalls     int
	ProbeCalls     int
	BillPageCalls  int
	QueryCalls     int
	OptionsCalls   int
	ResetCalls     int
	LastUsername   string
	LastPassword   string
	LastLoginToken string
	LastSystemID   string
	LastQueryForm  url.Values
	LastQueryToken string
	LastEndpoint   string
	LastOptionForm url.Values
	Imported       *models.Session
}

func (f *fakeClient) BaseURL() string { return "http://portal.test" }

func (f *fakeClient) GetLoginPage(ctx context.Context) ([]byte, error) {
	return f.LoginPage, f.LoginPageErr
}

func (f *fakeClient) PostLogin(ctx context.Context, username string, password []byte, token string) ([]byte, error) {
	f.LoginCalls++
	f.LastUsername = username
	f.LastPassword = string(password)
	f.LastLoginToken = token
	return f.PostLoginBody, f.PostLoginErr
}

func (f *fakeClient) GetProbePage(ctx context.Context) ([]byte, error) {
	f.ProbeCalls++
	return f.ProbeBody, f.ProbeErr
}

func (f *fakeClient) GetElectricIndex(ctx context.Context) ([]byte, error) {
	return f.IndexBody, f.IndexErr
}

func (f *fakeClient) GetBillPage(ctx context.Context, systemID string) ([]byte, error) {
	f.BillPageCalls++
	f.LastSystemID = systemID
	if f.BillPageErr != nil {
		return nil, f.BillPageErr
	}
	if len(f.BillPages) == 0 {
		return nil, nil
	}
	i := f.BillPageCalls - 1
	if i >= len(f.BillPages) {
		i = len(f.BillPages) - 1
	}
	return f.BillPages[i], nil
}

func (f *fakeClient) PostQuery(ctx context.Context, systemID string, form url.Values, token string) ([]byte, error) {
	f.QueryCalls++
	f.LastQueryForm = form
	f.LastQueryToken = token
	return f.QueryBody, f.QueryErr
}

func (f *fakeClient) PostOptions(ctx context.Context, endpoint string, systemID string, form url.Values, token string) ([]byte, error) {
	f.OptionsCalls++
	f.LastEndpoint = endpoint
	f.LastOptionForm = form
	return f.OptionsBody, f.OptionsErr
}

func (f *fakeClient) ExportSession() *models.Session {
	if f.Exported != nil {
		return f.Exported
	}
	return &models.Session{Version: models.SessionVersion, Cookies: []models.Cookie{{Name: "JSESSIONID", Value: "fresh", Path: "/epay"}}}
}

func (f *fakeClient) ImportSession(s *models.Session) { f.Imported = s }

func (f *fakeClient) ResetSession() error {
	f.ResetCalls++
	return f.ResetErr
}

// ---- fake session repository ----

type fakeSessions struct {
	Stored  *models.Session
	LoadErr error
	SaveErr error
	Saves   int
}

func (f *fakeSessions) Save(ctx context.Context, s *models.Session) error {
	f.Saves++
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.Stored = s
	return nil
}

func (f *fakeSessions) Load(ctx context.Context) (*models.Session, error) {
	return f.Stored, f.LoadErr
}

// ---- fake credentials ----

type fakeCreds struct {
	User  string
	Pass  string
	Err   error
	Calls int
	// Handed keeps the slices returned so tests can check they were wiped.
	Handed [][]byte
}

func (f *fakeCreds) Credentials(ctx context.Context) (string, []byte, error) {
	f.Calls++
	if f.Err != nil {
		return "", nil, f.Err
	}
	pw := []byte(f.Pass)
	f.Handed = append(f.Handed, pw)
	return f.User, pw, nil
}

// ---- fake auth ----

type fakeAuth struct {
	ReauthErr   error
	ReauthCalls int
	// OnReauth runs inside Reauthenticate, e.g. to make the next bill page
	// carry a token.
	OnReauth func()
}

func (f *fakeAuth) ProbeSessionValidity(ctx context.Context) bool { return true }
func (f *fakeAuth) Login(ctx context.Context, username string, password []byte) error {
	return nil
}
func (f *fakeAuth) Reauthenticate(ctx context.Context) error {
	f.ReauthCalls++
	if f.OnReauth != nil {
		f.OnReauth()
	}
	return f.ReauthErr
}
func (f *fakeAuth) EnsureSession(ctx context.Context) error { return nil }
func (f *fakeAuth) State() AuthState                        { return StateAuthenticated }

// ---- fake decrypter ----

type fakeDecrypter struct {
	Plain []byte
	Err   error
	Last  *cryptox.EncryptedSecret
}

func (f *fakeDecrypter) Decrypt(secret *cryptox.EncryptedSecret) ([]byte, error) {
	f.Last = secret
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]byte(nil), f.Plain...), nil
}

func testSelection() models.RoomSelection {
	return models.RoomSelection{
		System:   &models.Entity{ID: "sys", Name: "北洋园电控"},
		Area:     &models.Entity{ID: "a1", Name: "Peiyang"},
		District: &models.Entity{ID: "d1", Name: "North"},
		Building: &models.Entity{ID: "b1", Name: "B7"},
		Floor:    &models.Entity{ID: "f3", Name: "3F"},
		Room:     &models.Entity{ID: "r301", Name: "301"},
	}
}
