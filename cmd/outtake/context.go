package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"outtake/internal/config"
	"outtake/internal/journal"
	"outtake/internal/logging"
	"outtake/internal/relocate"
	"outtake/internal/session"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	sessionID  string

	journal *journal.Store
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
		sessionID:    uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// loggerValue returns the CLI logger, falling back to a console logger when
// the configured sinks cannot be opened.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, _ := c.ensureConfig()
		logger, err := logging.NewFromConfig(cfg, c.sessionID)
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: "warn", Format: "console", SessionID: c.sessionID})
			logging.WarnWithContext(logger, "log file unavailable, logging to stderr only", "logging_setup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check log_dir permissions"),
				logging.String(logging.FieldImpact, "no JSON log file for this run"))
		}
		c.logger = logger
	})
	return c.logger
}

// recorder opens the relocation journal on first use. A journal that cannot
// be opened disables history for this invocation only.
func (c *commandContext) recorder() relocate.Recorder {
	cfg, err := c.ensureConfig()
	if err != nil || !cfg.Journal.Enabled {
		return nil
	}
	if c.journal != nil {
		return c.journal
	}
	store, err := journal.Open(cfg)
	if err != nil {
		logging.WarnWithContext(c.loggerValue(), "relocation journal unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the journal database if the schema changed"),
			logging.String(logging.FieldImpact, "this run will not appear in history"))
		return nil
	}
	c.journal = store
	return store
}

func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Journal.Enabled {
		return nil, errors.New("relocation journal is disabled (journal.enabled = false)")
	}
	if c.journal == nil {
		store, err := journal.Open(cfg)
		if err != nil {
			return nil, err
		}
		c.journal = store
	}
	return c.journal, nil
}

// openSession builds a session over folder. preview may be nil.
func (c *commandContext) openSession(folder string, preview session.PreviewListener) (*session.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.loggerValue()
	relocator := relocate.New(relocate.OptionsFromConfig(cfg), c.recorder(), logger)
	s := session.New(relocator, preview, logger)
	if err := s.OpenFolder(folder); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *commandContext) close() error {
	if c.journal == nil {
		return nil
	}
	err := c.journal.Close()
	c.journal = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
