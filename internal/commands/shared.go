package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/teamchat/tchat/internal/client"
	"github.com/teamchat/tchat/internal/config"
	"github.com/teamchat/tchat/internal/identity"
	"github.com/teamchat/tchat/internal/logging"
	"github.com/teamchat/tchat/internal/panel"
)

// apiTimeout is the default timeout for a whole command.
const apiTimeout = 30 * time.Second

// session bundles what every chat command needs.
type session struct {
	cfg    *config.Config
	me     identity.Identity
	client *client.Client
	logger *slog.Logger
}

// loadConfig resolves .tchat, the environment and the --log-level flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(os.Getenv)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	return cfg, nil
}

// loadSession builds a session that logs to stderr.
func loadSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newSession(cfg, os.Stderr)
}

// newSession builds a session from a resolved config. A nil logOut discards logs.
func newSession(cfg *config.Config, logOut io.Writer) (*session, error) {
	me, err := identity.Resolve(cfg.UserID, cfg.DisplayName, cfg.Token)
	if err != nil {
		return nil, err
	}
	logger := logging.Discard()
	if logOut != nil {
		logger = logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Writer: logOut,
		})
	}
	c := client.NewWithToken(cfg.ServerURL, cfg.Token).WithTimeout(cfg.RequestTimeoutOrDefault())
	return &session{cfg: cfg, me: me, client: c, logger: logger}, nil
}

// openPanel opens a panel on the session's backend.
func (s *session) openPanel(ctx context.Context) (*panel.Panel, error) {
	p := panel.New(s.client, s.me, panel.Options{
		Logger:      s.logger,
		TaskTimeout: s.cfg.RequestTimeoutOrDefault(),
	})
	if err := p.Open(ctx); err != nil {
		p.Close()
		return nil, wrapRequestError("loading conversations", err)
	}
	return p, nil
}

// finish waits for background work and closes the panel. Task failures are
// logged by the panel.
func finish(p *panel.Panel) {
	p.Wait()
	p.Close()
}

// wrapRequestError prefixes a backend failure with what was being done and
// a hint for the common failure classes.
func wrapRequestError(action string, err error) error {
	if err == nil {
		return nil
	}
	switch client.Classify(err) {
	case client.KindUnauthorized:
		return fmt.Errorf("%s: not authorized, check token in .tchat or TCHAT_TOKEN: %w", action, err)
	case client.KindNetwork:
		return fmt.Errorf("%s: cannot reach chat server: %w", action, err)
	case client.KindTimeout:
		return fmt.Errorf("%s: request timed out: %w", action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// requireArg trims a positional argument and rejects blanks.
func requireArg(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return value, nil
}

var errHealthFailed = errors.New("health check failed")

func activeRoom(p *panel.Panel) (string, bool) {
	return panel.ActiveRoom(p.View())
}
