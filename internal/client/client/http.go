package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/common"
)

// DefaultUserAgent mimics the desktop browser the portal was built for.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"

const maxBodySize = 4 << 20

type HTTPClient struct {
	base      *url.URL
	http      *http.Client
	jar       *recordingJar
	userAgent string
}

func NewHTTPClient(baseURL string) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", baseURL)
	}

	jar, err := newRecordingJar()
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &HTTPClient{
		base:      u,
		jar:       jar,
		http:      &http.Client{Jar: jar, Timeout: common.RequestTimeout},
		userAgent: DefaultUserAgent,
	}, nil
}

func (c *HTTPClient) BaseURL() string {
	return c.base.String()
}

func (c *HTTPClient) url(path string, query url.Values) string {
	u := *c.base
	u.Path = path
	u.RawQuery = ""
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type request struct {
	method string
	path   string
	query  url.Values
	form   url.Values
	// page requests are plain browser navigations; the rest are XHR.
	page    bool
	headers map[string]string
}

func (c *HTTPClient) do(ctx context.Context, r request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, common.RequestTimeout)
	defer cancel()

	var body io.Reader
	if r.form != nil {
		body = strings.NewReader(r.form.Encode())
	}

	target := c.url(r.path, r.query)
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", r.method, r.path, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if !r.page {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, r.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s: %d", ErrUnexpectedStatus, r.method, r.path, resp.StatusCode)
	}
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), nil
}

func (c *HTTPClient) GetLoginPage(ctx context.Context) ([]byte, error) {
	return c.do(ctx, request{method: http.MethodGet, path: LoginPagePath, page: true})
}

func (c *HTTPClient) PostLogin(ctx context.Context, username string, password []byte, token string) ([]byte, error) {
	form := url.Values{
		"j_username":         {username},
		"j_password":         {string(password)},
		common.CSRFFieldName: {token},
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   LoginPath,
		form:   form,
		headers: map[string]string{
			"Referer": c.url(LoginPagePath, nil),
			"Origin":  c.BaseURL(),
		},
	})
}

func (c *HTTPClient) GetProbePage(ctx context.Context) ([]byte, error) {
	return c.do(ctx, request{method: http.MethodGet, path: ProbePath, page: true})
}

func (c *HTTPClient) GetElectricIndex(ctx context.Context) ([]byte, error) {
	return c.do(ctx, request{method: http.MethodGet, path: ElectricIndexPath, page: true})
}

func (c *HTTPClient) billPageQuery(systemID string) url.Values {
	return url.Values{"elcsysid": {systemID}}
}

// BillPageURL is the Referer the query endpoints expect.
func (c *HTTPClient) BillPageURL(systemID string) string {
	return c.url(BillPagePath, c.billPageQuery(systemID))
}

func (c *HTTPClient) GetBillPage(ctx context.Context, systemID string) ([]byte, error) {
	return c.do(ctx, request{
		method:  http.MethodGet,
		path:    BillPagePath,
		query:   c.billPageQuery(systemID),
		page:    true,
		headers: map[string]string{"Referer": c.url(ElectricIndexPath, nil)},
	})
}

func (c *HTTPClient) PostQuery(ctx context.Context, systemID string, form url.Values, token string) ([]byte, error) {
	return c.PostOptions(ctx, QueryPath, systemID, form, token)
}

// PostOptions posts form to one of the /epay/electric endpoints with the
// token header and the bill page as Referer.
func (c *HTTPClient) PostOptions(ctx context.Context, endpoint string, systemID string, form url.Values, token string) ([]byte, error) {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   endpoint,
		form:   form,
		headers: map[string]string{
			common.CSRFHeaderName: token,
			"Referer":             c.BillPageURL(systemID),
		},
	})
}

func (c *HTTPClient) ExportSession() *models.Session {
	return &models.Session{Version: models.SessionVersion, Cookies: c.jar.export()}
}

func (c *HTTPClient) ImportSession(s *models.Session) {
	if s.Empty() {
		return
	}
	c.jar.load(c.base, s.Cookies)
}

func (c *HTTPClient) ResetSession() error {
	jar, err := newRecordingJar()
	if err != nil {
		return fmt.Errorf("cookie jar: %w", err)
	}
	c.jar = jar
	c.http.Jar = jar
	return nil
}
