package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dmitrijs2005/tjuecard/internal/client/client"
	"github.com/dmitrijs2005/tjuecard/internal/client/config"
	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/client/repositories/session"
	"github.com/dmitrijs2005/tjuecard/internal/client/repositories/userconfig"
	"github.com/dmitrijs2005/tjuecard/internal/cryptox"
	"github.com/dmitrijs2005/tjuecard/internal/logging"
	"github.com/dmitrijs2005/tjuecard/internal/notify"
	"github.com/dmitrijs2005/tjuecard/internal/scheduler"
	"github.com/google/uuid"
)

type App struct {
	config *config.Config
	log    logging.Logger

	reader *bufio.Reader
	out    io.Writer

	client   client.Client
	keys     *cryptox.KeyStore
	crypto   *cryptox.Store
	configs  userconfig.Repository
	sessions session.Repository

	mailer       notify.Sender
	registrarFor func(goos string) (scheduler.Registrar, error)
	queryCommand []string
	now          func() time.Time
}

// NewApp wires the stores and the portal client from c. Every run gets a
// fresh run_id attached to all of its log lines.
func NewApp(c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	apiClient, err := client.NewHTTPClient(c.BaseURL)
	if err != nil {
		return nil, err
	}

	keys := cryptox.NewKeyStore(c.KeyPath())

	return &App{
		config:   c,
		log:      log.With("run_id", uuid.NewString()),
		reader:   bufio.NewReader(in),
		out:      out,
		client:   apiClient,
		keys:     keys,
		crypto:   cryptox.NewStore(keys),
		configs:  userconfig.NewFileRepository(c.UserConfigPath()),
		sessions: session.NewFileRepository(c.SessionPath()),
		mailer:   notify.NewSMTPSender(),
		registrarFor: func(goos string) (scheduler.Registrar, error) {
			return scheduler.ForPlatform(goos, nil)
		},
		queryCommand: defaultQueryCommand(c.DataDir),
		now:          time.Now,
	}, nil
}

// defaultQueryCommand points at the tjuecard binary installed next to the
// running one, pinned to dataDir.
func defaultQueryCommand(dataDir string) []string {
	name := "tjuecard"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	exe, err := os.Executable()
	if err != nil {
		return []string{name, "-d", dataDir}
	}
	return []string{filepath.Join(filepath.Dir(exe), name), "-d", dataDir}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) notifier(cfg *models.EmailNotifier) *notify.Notifier {
	return notify.New(cfg, a.crypto, a.log).WithSender(a.mailer)
}
