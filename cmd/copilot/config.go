package main

import (
	"fmt"

	"github.com/poiesic/copilot"
	"github.com/urfave/cli/v2"
)

const maskedSecret = "********"

func configCommand(c *cli.Context) error {
	var (
		cfg *copilot.Config
		err error
	)
	if c.Bool("defaults") {
		cfg = copilot.DefaultConfig()
	} else if cfg, err = loadConfig(c); err != nil {
		return err
	}

	if !c.Bool("show-secrets") && cfg.AI.APIKey != "" && cfg.AI.APIKey != "none" {
		cfg.AI.APIKey = maskedSecret
	}

	data, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = c.App.Writer.Write(data)
	return err
}
