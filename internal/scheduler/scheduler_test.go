package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type call struct {
	stdin string
	name  string
	args  []string
}

type fakeRunner struct {
	Calls []call
	// Out and Err are keyed by "name arg0".
	Out map[string]string
	Err map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	f.Calls = append(f.Calls, call{stdin: string(stdin), name: name, args: args})
	key := name
	if len(args) > 0 {
		key += " " + args[0]
	}
	return []byte(f.Out[key]), f.Err[key]
}

func job() Job {
	return Job{Name: DefaultJobName, Command: []string{"/opt/tje card/tjuecard"}, Hour: 7, Minute: 5}
}

func TestJobValidate(t *testing.T) {
	require.NoError(t, job().validate())

	bad := []Job{
		{Command: []string{"x"}},
		{Name: "n"},
		{Name: "n", Command: []string{""}},
		{Name: "n", Command: []string{"x"}, Hour: 24},
		{Name: "n", Command: []string{"x"}, Minute: -1},
	}
	for _, j := range bad {
		require.Error(t, j.validate())
	}
}

func TestForPlatform(t *testing.T) {
	r, err := ForPlatform("linux", &fakeRunner{})
	require.NoError(t, err)
	require.IsType(t, &Cron{}, r)

	r, err = ForPlatform("windows", nil)
	require.NoError(t, err)
	require.IsType(t, &Schtasks{}, r)

	r, err = ForPlatform("darwin", &fakeRunner{})
	require.NoError(t, err)
	ld := r.(*Launchd)
	require.Equal(t, LaunchdLabel, ld.Label)
	require.True(t, strings.HasSuffix(ld.Dir, filepath.Join("Library", "LaunchAgents")))

	_, err = ForPlatform("plan9", nil)
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestCron_AppendsToExistingTable(t *testing.T) {
	fr := &fakeRunner{Out: map[string]string{"crontab -l": "0 1 * * * backup\n"}}
	c := &Cron{Run: fr}

	require.NoError(t, c.Register(context.Background(), job()))

	require.Len(t, fr.Calls, 2)
	install := fr.Calls[1]
	require.Equal(t, "crontab", install.name)
	require.Equal(t, []string{"-"}, install.args)
	require.Equal(t, "0 1 * * * backup\n5 7 * * * '/opt/tje card/tjuecard' # TJUEcardAutoQuery\n", install.stdin)
}

func TestCron_ReplacesPreviousRegistration(t *testing.T) {
	fr := &fakeRunner{Out: map[string]string{
		"crontab -l": "5 7 * * * '/old/tjuecard' # TJUEcardAutoQuery\n0 1 * * * backup\n",
	}}
	c := &Cron{Run: fr}

	j := job()
	j.Hour, j.Minute = 21, 30
	require.NoError(t, c.Register(context.Background(), j))

	table := fr.Calls[1].stdin
	require.Equal(t, 1, strings.Count(table, DefaultJobName))
	require.Contains(t, table, "30 21 * * * ")
	require.Contains(t, table, "backup")
}

func TestCron_NoExistingTable(t *testing.T) {
	fr := &fakeRunner{Err: map[string]error{"crontab -l": errors.New("no crontab for user")}}
	require.NoError(t, (&Cron{Run: fr}).Register(context.Background(), job()))
	require.Equal(t, cronLine(job())+"\n", fr.Calls[1].stdin)
}

func TestCron_UnreadableTableIsLeftAlone(t *testing.T) {
	fr := &fakeRunner{Err: map[string]error{"crontab -l": errors.New("crontab: permission denied")}}

	err := (&Cron{Run: fr}).Register(context.Background(), job())
	require.Error(t, err)
	require.Len(t, fr.Calls, 1)
}

func TestCron_InstallFails(t *testing.T) {
	fr := &fakeRunner{Err: map[string]error{"crontab -": errors.New("permission denied")}}
	require.Error(t, (&Cron{Run: fr}).Register(context.Background(), job()))
}

func TestShellQuote(t *testing.T) {
	require.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestLaunchd_WritesPlistAndLoads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "LaunchAgents")
	fr := &fakeRunner{}
	l := &Launchd{Run: fr, Dir: dir, Label: LaunchdLabel}

	j := job()
	j.Command = []string{"/Apps/Tje&Card/tjuecard", "-c", "/etc/x.json"}
	require.NoError(t, l.Register(context.Background(), j))

	path := filepath.Join(dir, LaunchdLabel+".plist")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	plist := string(data)
	require.Contains(t, plist, "<string>com.tjuecard.automatic</string>")
	require.Contains(t, plist, "<string>/Apps/Tje&amp;Card/tjuecard</string>")
	require.Contains(t, plist, "<string>-c</string>")
	require.Contains(t, plist, "<key>Hour</key>\n        <integer>7</integer>")
	require.Contains(t, plist, "<key>Minute</key>\n        <integer>5</integer>")

	if runtime.GOOS != "windows" {
		st, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o644), st.Mode().Perm())
	}

	require.Len(t, fr.Calls, 2)
	require.Equal(t, []string{"unload", path}, fr.Calls[0].args)
	require.Equal(t, []string{"load", path}, fr.Calls[1].args)
}

func TestLaunchd_LoadFails(t *testing.T) {
	fr := &fakeRunner{Err: map[string]error{"launchctl load": errors.New("boom")}}
	l := &Launchd{Run: fr, Dir: t.TempDir(), Label: LaunchdLabel}
	require.Error(t, l.Register(context.Background(), job()))
}

func TestSchtasks_Args(t *testing.T) {
	fr := &fakeRunner{}
	s := &Schtasks{Run: fr}

	j := job()
	j.Command = []string{`C:\Program Files\tjuecard\tjuecard.exe`}
	j.Hour, j.Minute = 8, 0
	require.NoError(t, s.Register(context.Background(), j))

	require.Len(t, fr.Calls, 1)
	require.Equal(t, "schtasks", fr.Calls[0].name)
	require.Equal(t, []string{
		"/create", "/tn", "TJUEcardAutoQuery",
		"/tr", `"C:\Program Files\tjuecard\tjuecard.exe"`,
		"/sc", "daily", "/st", "08:00", "/f",
	}, fr.Calls[0].args)
	require.Contains(t, s.Describe(j), "08:00")
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	out, err := ExecRunner{}.Run(context.Background(), []byte("hello"), "sh", "-c", "cat")
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))

	_, err = ExecRunner{}.Run(context.Background(), nil, "sh", "-c", "echo nope >&2; exit 3")
	require.ErrorContains(t, err, "nope")
}
