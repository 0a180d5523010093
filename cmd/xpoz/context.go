package main

import (
	"os"
	"strings"
	"sync"

	"xpoz/internal/logging"
	"xpoz/internal/startup"
)

const defaultConfigName = startup.DefaultConfigFile

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *startup.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads and validates the settings once per process and
// applies the configured log level.
func (c *commandContext) ensureConfig() (*startup.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := startup.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		applyLogLevel(cfg.LogLevel)
		c.config = cfg
	})
	return c.config, c.configErr
}

// applyLogLevel sets the level from the settings unless DEBUG is set in
// the environment, which always wins.
func applyLogLevel(name string) {
	if os.Getenv("DEBUG") != "" && logging.IsDebugEnabled() {
		return
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		logging.Warn("Invalid log level %q, keeping %s", name, logging.GetLevel())
		return
	}
	logging.SetLevel(level)
}
