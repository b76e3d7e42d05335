package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.App{
		Name:   "coach",
		Writer: &out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-file"},
		},
		Metadata: map[string]interface{}{"logger": logger.NewNopLogger()},
		Commands: []*cli.Command{ConfigCommand(), ServerCommand()},
	}
	err := app.RunContext(context.Background(), append([]string{"coach"}, args...))
	return out.String(), err
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "openai with key", env: map[string]string{"OPENAI_API_KEY": "sk-test"}},
		{name: "openai without key", env: map[string]string{"OPENAI_API_KEY": ""}, wantErr: true},
		{name: "unknown provider", env: map[string]string{"OPENAI_API_KEY": "sk-test", "LLM_PROVIDER": "llama"}, wantErr: true},
		{name: "bad alpha", env: map[string]string{"OPENAI_API_KEY": "sk-test", "COACH_EWMA_ALPHA": "1.5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			out, err := runApp(t, "config", "validate")

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, "Configuration is valid")
		})
	}
}

func TestConfigPrint_RedactsSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-very-secret")
	t.Setenv("DB_PASSWORD", "hunter2")

	out, err := runApp(t, "config", "print")
	require.NoError(t, err)

	assert.NotContains(t, out, "sk-very-secret")
	assert.NotContains(t, out, "hunter2")

	var printed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &printed))
	assert.Equal(t, redacted, printed["openai"].(map[string]any)["api_key"])
	assert.Equal(t, 0.25, printed["coaching"].(map[string]any)["ewma_alpha"])
}

func TestConfigPrint_ReadsFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := filepath.Join(t.TempDir(), "coach.yaml")
	require.NoError(t, os.WriteFile(path, []byte("coaching:\n  sentiment_samples: 7\n"), 0o600))

	out, err := runApp(t, "--config-file", path, "config", "print")
	require.NoError(t, err)
	assert.Contains(t, out, "sentiment_samples: 7")

	_, err = runApp(t, "--config-file", filepath.Join(t.TempDir(), "missing.yaml"), "config", "print")
	assert.Error(t, err)
}
