package cli

import (
	"fmt"

	appconfig "github.com/lewisedginton/dating_coach/internal/config"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

// ConfigCommand returns a command for configuration operations
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Configuration operations",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Validate configuration",
				Action: configValidateAction,
			},
			{
				Name:   "print",
				Usage:  "Print the effective configuration as YAML with secrets redacted",
				Action: configPrintAction,
			},
		},
	}
}

func configValidateAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	log.Info("Validating configuration")

	cfg, err := loadConfig(ctx)
	if err != nil {
		log.Error("Configuration validation failed", logger.ErrorField(err))
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration validation passed",
		logger.StringField("llm_provider", cfg.LLM.Provider),
		logger.StringField("persistence_backend", cfg.Persistence.Backend))
	_, _ = fmt.Fprintln(ctx.App.Writer, "✅ Configuration is valid")
	return nil
}

func configPrintAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out, err := yaml.Marshal(redact(*cfg))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}

// redact blanks every credential that would otherwise be serialized.
func redact(cfg appconfig.AppConfig) appconfig.AppConfig {
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&cfg.OpenAI.APIKey)
	mask(&cfg.Anthropic.APIKey)
	mask(&cfg.Gemini.APIKey)
	mask(&cfg.Database.Password)
	mask(&cfg.Database.URL)
	mask(&cfg.Redis.URL)
	mask(&cfg.Redis.Password)
	mask(&cfg.Storage.GitAuthPassword)
	return cfg
}
