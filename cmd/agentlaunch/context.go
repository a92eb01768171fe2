package main

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"agentlaunch/internal/config"
	"agentlaunch/internal/journal"
	"agentlaunch/internal/launch"
	"agentlaunch/internal/logging"
	"agentlaunch/internal/services/clawnch"
	"agentlaunch/internal/services/fal"
	"agentlaunch/internal/services/moltbook"
	"agentlaunch/internal/wizard"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) sessionStore() (*wizard.FileStore, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return wizard.NewFileStore(cfg.SessionPath()), nil
}

func (c *commandContext) moltbookClient() (*moltbook.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return moltbook.New(cfg.Moltbook.BaseURL, cfg.Moltbook.Submolt)
}

func (c *commandContext) falClient() (*fal.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return fal.New(fal.Config{
		APIKey:         cfg.Fal.APIKey,
		BaseURL:        cfg.Fal.BaseURL,
		ImageModel:     cfg.Fal.ImageModel,
		TextModel:      cfg.Fal.TextModel,
		FallbackURL:    cfg.Launch.FallbackImageURL,
		TimeoutSeconds: cfg.Fal.TimeoutSeconds,
	}), nil
}

func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return journal.Open(cfg.JournalPath())
}

// orchestrator wires the full launch flow. The journal store may be nil
// when history recording is not wanted.
func (c *commandContext) orchestrator(store *journal.Store) (*launch.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	moltbookClient, err := c.moltbookClient()
	if err != nil {
		return nil, err
	}
	clawnchClient, err := clawnch.New(cfg.Clawnch.BaseURL, time.Duration(cfg.Clawnch.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	var recorder launch.Recorder
	if store != nil {
		recorder = store
	}
	return launch.NewOrchestrator(moltbookClient, clawnchClient, recorder, cfg.Launch.FallbackImageURL, logging.NewNop()), nil
}

func (c *commandContext) machine(store *journal.Store) (*wizard.Machine, error) {
	sessions, err := c.sessionStore()
	if err != nil {
		return nil, err
	}
	moltbookClient, err := c.moltbookClient()
	if err != nil {
		return nil, err
	}
	falClient, err := c.falClient()
	if err != nil {
		return nil, err
	}
	orchestrator, err := c.orchestrator(store)
	if err != nil {
		return nil, err
	}
	return wizard.New(sessions, moltbookClient, falClient, orchestrator, logging.NewNop()), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
