package cli

import (
	"fmt"
	"os"

	appconfig "github.com/lewisedginton/dating_coach/internal/config"
	"github.com/lewisedginton/dating_coach/pkg/config"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/urfave/cli/v2"
)

const serviceName = "dating-coach"

// getLogger retrieves the logger from the CLI context metadata
func getLogger(ctx *cli.Context) logger.Logger {
	if ctx.App.Metadata != nil {
		if log, ok := ctx.App.Metadata["logger"].(logger.Logger); ok {
			return log
		}
	}

	return logger.NewLogger(logger.Config{
		Level:   logger.InfoLevel,
		Format:  "json",
		Service: serviceName,
	})
}

// loadConfig reads the YAML file named by --config-file, when set, and applies
// environment overrides and defaults on top.
func loadConfig(ctx *cli.Context) (*appconfig.AppConfig, error) {
	cfg := &appconfig.AppConfig{}
	path := ctx.String("config-file")
	if err := config.GetConfig(cfg, path, false); err != nil {
		if path == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// serviceLogger builds the long-running logger from the logging section.
func serviceLogger(cfg *appconfig.AppConfig) logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
		Output:  os.Stdout,
	})
}
