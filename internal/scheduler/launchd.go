package scheduler

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/dmitrijs2005/tjuecard/internal/filex"
)

// Launchd writes a LaunchAgent plist and loads it.
type Launchd struct {
	Run   Runner
	Dir   string
	Label string
}

var plistTemplate = template.Must(template.New("plist").Funcs(template.FuncMap{
	"xml": func(s string) string {
		var b strings.Builder
		_ = xml.EscapeText(&b, []byte(s))
		return b.String()
	},
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{xml .Label}}</string>
    <key>ProgramArguments</key>
    <array>
{{- range .Command}}
        <string>{{xml .}}</string>
{{- end}}
    </array>
    <key>StartCalendarInterval</key>
    <dict>
        <key>Hour</key>
        <integer>{{.Hour}}</integer>
        <key>Minute</key>
        <integer>{{.Minute}}</integer>
    </dict>
    <key>RunAtLoad</key>
    <false/>
</dict>
</plist>
`))

func (l *Launchd) path() string {
	return filepath.Join(l.Dir, l.Label+".plist")
}

func (l *Launchd) render(job Job) ([]byte, error) {
	var buf bytes.Buffer
	err := plistTemplate.Execute(&buf, struct {
		Label   string
		Command []string
		Hour    int
		Minute  int
	}{l.Label, job.Command, job.Hour, job.Minute})
	return buf.Bytes(), err
}

func (l *Launchd) Register(ctx context.Context, job Job) error {
	if err := job.validate(); err != nil {
		return err
	}

	plist, err := l.render(job)
	if err != nil {
		return fmt.Errorf("render plist: %w", err)
	}
	if err := filex.WriteFileAtomic(l.path(), plist, 0o644); err != nil {
		return fmt.Errorf("write plist: %w", err)
	}

	// a previous registration stays loaded with its old schedule otherwise
	_, _ = l.Run.Run(ctx, nil, "launchctl", "unload", l.path())
	if _, err := l.Run.Run(ctx, nil, "launchctl", "load", l.path()); err != nil {
		return fmt.Errorf("launchctl load: %w", err)
	}
	return nil
}

func (l *Launchd) Describe(job Job) string {
	return fmt.Sprintf("launchd: daily at %02d:%02d (%s)", job.Hour, job.Minute, l.path())
}
