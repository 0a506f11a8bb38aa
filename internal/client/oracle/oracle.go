// Package oracle isolates the content heuristics used to decide whether the
// portal accepted us. The portal never answers 401; it renders a login form
// or a frameset with status 200 either way, so the body is all we have.
package oracle

import "bytes"

// SessionHealthOracle judges a response body.
type SessionHealthOracle interface {
	// Healthy reports whether body came from an authenticated session.
	Healthy(body []byte) bool
}

// LoginFormOracle treats a page as unauthenticated when it contains any of
// the login form markers.
type LoginFormOracle struct {
	Markers [][]byte
}

// NewLoginFormOracle returns the probe oracle for the /epay login form.
func NewLoginFormOracle() *LoginFormOracle {
	return &LoginFormOracle{Markers: [][]byte{
		[]byte("j_spring_security_check"),
		[]byte("j_username"),
	}}
}

func (o *LoginFormOracle) Healthy(body []byte) bool {
	for _, m := range o.Markers {
		if bytes.Contains(body, m) {
			return false
		}
	}
	return true
}

// FramesetOracle accepts a login response only if the authenticated shell
// page (a frameset) was rendered.
type FramesetOracle struct {
	Marker []byte
}

func NewFramesetOracle() *FramesetOracle {
	return &FramesetOracle{Marker: []byte("<frameset")}
}

func (o *FramesetOracle) Healthy(body []byte) bool {
	return bytes.Contains(body, o.Marker)
}
