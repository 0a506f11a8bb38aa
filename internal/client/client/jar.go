package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"golang.org/x/net/publicsuffix"
)

// recordingJar is a cookiejar.Jar that also remembers every cookie the
// server set, with its path and domain, so the session can be written to
// disk and restored exactly. cookiejar.Jar only hands back name and value.
type recordingJar struct {
	inner *cookiejar.Jar

	mu   sync.Mutex
	seen map[string]models.Cookie
}

func newRecordingJar() (*recordingJar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &recordingJar{inner: inner, seen: map[string]models.Cookie{}}, nil
}

func cookieKey(c models.Cookie) string {
	return c.Name + "\x00" + c.Domain + "\x00" + c.Path
}

// defaultPath follows RFC 6265 section 5.1.4.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func (j *recordingJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		rec := models.Cookie{Name: c.Name, Value: c.Value, Path: c.Path, Domain: strings.TrimPrefix(c.Domain, ".")}
		if rec.Path == "" || rec.Path[0] != '/' {
			rec.Path = defaultPath(u.Path)
		}
		key := cookieKey(rec)

		expired := c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now))
		if expired {
			delete(j.seen, key)
			continue
		}
		j.seen[key] = rec
	}
}

func (j *recordingJar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

func (j *recordingJar) export() []models.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]models.Cookie, 0, len(j.seen))
	for _, c := range j.seen {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		return out[a].Path < out[b].Path
	})
	return out
}

// load replays persisted cookies as if base had just set them.
func (j *recordingJar) load(base *url.URL, cookies []models.Cookie) {
	hc := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		p := c.Path
		if p == "" {
			p = "/"
		}
		hc = append(hc, &http.Cookie{Name: c.Name, Value: c.Value, Path: p, Domain: c.Domain})
	}
	j.SetCookies(base, hc)
}
