package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tjuecard/internal/client/client"
	"github.com/dmitrijs2005/tjuecard/internal/client/config"
	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/logging"
	"github.com/dmitrijs2005/tjuecard/internal/notify"
	"github.com/dmitrijs2005/tjuecard/internal/scheduler"
	"github.com/stretchr/testify/require"
)

const (
	loginPageHTML = `<html><form action="/epay/j_spring_security_check"><input name="j_username"><input type="hidden" name="_csrf" value="login-tok"></form></html>`
	framesetHTML  = `<html><frameset rows="80,*"><frame src="top"></frameset></html>`
	badLoginHTML  = `<html><body>bad credentials <input name="j_username"></body></html>`
	personalHTML  = `<html><body>welcome back</body></html>`
	billPageHTML  = `<html><head><meta name="_csrf" content="bill-tok"></head></html>`
	noTokenHTML   = `<html><body>please log in</body></html>`
	indexHTML     = `<html><ul>
<li class="my_link" onclick="load('sys-byy')">北洋园电控</li>
<li class="my_link" onclick="load('sys-other')">Other system</li>
<li class="my_link" onclick="load('sys-wjl')">卫津路宿舍电控</li>
</ul></html>`
)

// fakePortal imitates the epay endpoints the client talks to.
type fakePortal struct {
	mu sync.Mutex

	Username  string
	Password  string
	SessionID string
	// Tokenless makes the bill page omit the anti-forgery token.
	Tokenless bool
	// MissingTokens drops the token from that many bill pages first.
	MissingTokens int
	QueryBody     string
	Options       map[string]string

	Logins    int
	Queries   int
	LastQuery map[string]string
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		Username:  "alice",
		Password:  "pw",
		SessionID: "sess-1",
		QueryBody: `{"retcode":0,"restElecDegree":"42.5"}`,
		Options:   map[string]string{},
	}
}

func (p *fakePortal) loggedIn(r *http.Request) bool {
	c, err := r.Cookie("JSESSIONID")
	return err == nil && c.Value == p.SessionID
}

func (p *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch r.URL.Path {
	case client.LoginPagePath:
		if p.loggedIn(r) {
			w.Write([]byte(personalHTML))
			return
		}
		w.Write([]byte(loginPageHTML))
	case client.LoginPath:
		_ = r.ParseForm()
		p.Logins++
		if r.PostForm.Get("_csrf") != "login-tok" ||
			r.PostForm.Get("j_username") != p.Username ||
			r.PostForm.Get("j_password") != p.Password {
			w.Write([]byte(badLoginHTML))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: p.SessionID, Path: "/epay"})
		w.Write([]byte(framesetHTML))
	case client.ElectricIndexPath:
		w.Write([]byte(indexHTML))
	case client.BillPagePath:
		if p.MissingTokens > 0 {
			p.MissingTokens--
			w.Write([]byte(noTokenHTML))
			return
		}
		if p.loggedIn(r) && !p.Tokenless {
			w.Write([]byte(billPageHTML))
			return
		}
		w.Write([]byte(noTokenHTML))
	case client.QueryPath:
		_ = r.ParseForm()
		p.Queries++
		p.LastQuery = map[string]string{}
		for k := range r.PostForm {
			p.LastQuery[k] = r.PostForm.Get(k)
		}
		if r.Header.Get("X-CSRF-TOKEN") != "bill-tok" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Write([]byte(p.QueryBody))
	default:
		if body, ok := p.Options[r.URL.Path]; ok {
			w.Write([]byte(body))
			return
		}
		http.NotFound(w, r)
	}
}

type sentMail struct {
	To       string
	Subject  string
	Body     string
	AuthCode string
}

type fakeMailer struct {
	Sent    []sentMail
	SendErr error
}

func (m *fakeMailer) Send(ctx context.Context, p notify.Provider, account string, authCode []byte, to string, subject, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, sentMail{To: to, Subject: subject, Body: body, AuthCode: string(authCode)})
	return nil
}

type fakeRegistrar struct {
	LastJob     *scheduler.Job
	RegisterErr error
}

func (r *fakeRegistrar) Register(ctx context.Context, job scheduler.Job) error {
	if r.RegisterErr != nil {
		return r.RegisterErr
	}
	r.LastJob = &job
	return nil
}

func (r *fakeRegistrar) Describe(job scheduler.Job) string {
	return "registered " + job.Name
}

type harness struct {
	app       *App
	portal    *fakePortal
	out       *bytes.Buffer
	mailer    *fakeMailer
	registrar *fakeRegistrar
}

func newHarness(t *testing.T, p *fakePortal, input string) *harness {
	t.Helper()

	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BaseURL = srv.URL
	cfg.DataDir = t.TempDir()
	cfg.OptionInterval = time.Millisecond

	out := &bytes.Buffer{}
	app, err := NewApp(cfg, logging.Discard(), strings.NewReader(input), out)
	require.NoError(t, err)

	h := &harness{app: app, portal: p, out: out, mailer: &fakeMailer{}, registrar: &fakeRegistrar{}}
	app.mailer = h.mailer
	app.registrarFor = func(string) (scheduler.Registrar, error) { return h.registrar, nil }
	app.queryCommand = []string{"/opt/tjuecard/tjuecard", "-d", cfg.DataDir}
	app.now = func() time.Time { return time.Date(2026, 10, 16, 7, 30, 0, 0, time.Local) }
	return h
}

func testSelection() models.RoomSelection {
	return models.RoomSelection{
		System:   &models.Entity{ID: "sys-byy", Name: "北洋园电控"},
		Area:     &models.Entity{ID: "a1", Name: "Peiyang"},
		District: &models.Entity{ID: "d1", Name: "Dorms"},
		Building: &models.Entity{ID: "b7", Name: "Building 7"},
		Floor:    &models.Entity{ID: "f3", Name: "3F"},
		Room:     &models.Entity{ID: "r301", Name: "301"},
	}
}

// writeUserConfig stores an encrypted config for alice. threshold nil
// leaves the mail section without a threshold.
func (h *harness) writeUserConfig(t *testing.T, password string, threshold *float64) {
	t.Helper()
	pw, err := h.app.crypto.EncryptString(password)
	require.NoError(t, err)
	code, err := h.app.crypto.EncryptString("smtp-code")
	require.NoError(t, err)

	cfg := &models.UserConfig{
		Credentials: models.Credentials{Username: "alice", PasswordEnc: pw},
		Selection:   testSelection(),
		EmailNotifier: &models.EmailNotifier{
			Email:       "alice@qq.com",
			AuthCodeEnc: code,
			Threshold:   threshold,
		},
	}
	require.NoError(t, h.app.configs.Save(context.Background(), cfg))
}

func (h *harness) saveSession(t *testing.T, value string) {
	t.Helper()
	err := h.app.sessions.Save(context.Background(), &models.Session{
		Cookies: []models.Cookie{{Name: "JSESSIONID", Value: value, Path: "/epay"}},
	})
	require.NoError(t, err)
}

func optionsJSON(t *testing.T, list, idKey, nameKey string, items ...[2]string) string {
	t.Helper()
	entries := make([]map[string]string, 0, len(items))
	for _, it := range items {
		entries = append(entries, map[string]string{idKey: it[0], nameKey: it[1]})
	}
	data, err := json.Marshal(map[string]any{list: entries})
	require.NoError(t, err)
	return string(data)
}
