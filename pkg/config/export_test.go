package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestExport_RoundTrip(t *testing.T) {
	tests := map[string]struct {
		filename string
	}{
		"JSON":   {filename: "exported.json"},
		"YAML":   {filename: "exported.yaml"},
		"Dotenv": {filename: "exported.env"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			path := filepath.Join(t.TempDir(), tc.filename)
			cfg := config.Defaults()
			cfg.Oracle.PrivateKeyWIF = "L1wif"
			cfg.Alerts.OperatorWebhookURL = "http://alerts.local/hook"

			// when:
			err := config.Export(cfg, path, config.EnvPrefix)

			// then:
			require.NoError(t, err)

			// when:
			loader := config.NewLoader(config.Defaults, config.EnvPrefix)
			require.NoError(t, loader.SetConfigFilePath(path))
			loaded, err := loader.Load()

			// then:
			require.NoError(t, err)
			require.Equal(t, cfg.Oracle, loaded.Oracle)
			require.Equal(t, cfg.Pool, loaded.Pool)
			require.Equal(t, cfg.Alerts, loaded.Alerts)
			require.Equal(t, cfg.Server.AdminBearerToken, loaded.Server.AdminBearerToken)
		})
	}
}

func TestToEnvFile(t *testing.T) {
	// given:
	path := filepath.Join(t.TempDir(), "exported_config.env")

	// when:
	err := config.ToEnvFile(Defaults(), path, "TEST")

	// then:
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	require.Contains(t, content, `TEST_A="default_hello"`)
	require.Contains(t, content, `TEST_B_WITH_LONG_NAME="1"`)
	require.Contains(t, content, `TEST_C_SUB_CONFIG_D_NESTED_FIELD="default_world"`)
	require.Contains(t, content, `TEST_C_SUB_CONFIG_E_DURATION="1m0s"`)
}

func TestExport_UnsupportedExtension(t *testing.T) {
	// when:
	err := config.Export(Defaults(), filepath.Join(t.TempDir(), "config.toml"), "TEST")

	// then:
	require.Error(t, err)
}
