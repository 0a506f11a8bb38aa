package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginFormOracle(t *testing.T) {
	o := NewLoginFormOracle()

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"personal page", `<html><body><div class="user">3020001234</div></body></html>`, true},
		{"empty", ``, true},
		{"login form action", `<form action="/epay/j_spring_security_check">`, false},
		{"username field only", `<input name="j_username">`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, o.Healthy([]byte(tt.body)))
		})
	}
}

func TestFramesetOracle(t *testing.T) {
	o := NewFramesetOracle()

	assert.True(t, o.Healthy([]byte(`<html><frameset rows="80,*"><frame src="top"></frameset></html>`)))
	assert.False(t, o.Healthy([]byte(`<html><body>bad credentials</body></html>`)))
	assert.False(t, o.Healthy(nil))
}
