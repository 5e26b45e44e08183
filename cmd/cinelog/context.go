package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cinelog/internal/app"
	"cinelog/internal/config"
	"cinelog/internal/logging"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool
	appOptions  []app.Option

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool, appOptions ...app.Option) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
		appOptions:  appOptions,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// openApp wires the catalog components. Callers close the returned App.
func (c *commandContext) openApp(extra ...app.Option) (*app.App, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	verbose := c.verboseFlag != nil && *c.verboseFlag
	logger, err := logging.NewFromConfig(cfg, verbose)
	if err != nil {
		return nil, err
	}
	opts := append(append([]app.Option(nil), c.appOptions...), extra...)
	return app.New(cfg, logger, opts...)
}

// withApp opens the app, runs fn, and closes the app.
func (c *commandContext) withApp(fn func(*app.App) error, extra ...app.Option) error {
	a, err := c.openApp(extra...)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseEntryID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: expected a positive TMDB id", value)
	}
	return id, nil
}
