package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPublicKey = "8d4f0c7a2b1e9f3d6c5a4b3e2d1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3f"

func clearEnv(t *testing.T) {
	for _, name := range []string{
		"DYNAMODB_TABLE_NAME", "DISCORD_PUBLIC_KEY", "DISCORD_APPLICATION_ID", "DISCORD_BOT_TOKEN",
		"DISCORD_TOKEN_PARAMETER", "DISCORD_API_BASE_URL", "DISCORD_RATE_LIMIT", "EVENTBOARD_ADDR",
		"EVENTBOARD_STORE_DRIVER", "EVENTBOARD_SQLITE_PATH", "AWS_REGION", "EVENTBOARD_DYNAMODB_ENDPOINT",
		"EVENTBOARD_LOG_LEVEL", "EVENTBOARD_LOG_FORMAT", "EVENTBOARD_REFRESH_SCHEDULE",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigJSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{
		"server": {"addr": ":9090"},
		"discord": {"public_key": "`+testPublicKey+`", "bot_token": "abc"},
		"store": {"table_name": "events"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, DefaultInteractionsPath, cfg.Server.InteractionsPath)
	assert.Equal(t, "events", cfg.Store.TableName)
	assert.Equal(t, DriverDynamoDB, cfg.Store.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigYAMLWithEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
store:
  driver: sqlite
  table_name: from_file
dashboard:
  refresh_schedule: "@every 10m"
log:
  level: debug
`)
	t.Setenv("DYNAMODB_TABLE_NAME", "from_env")
	t.Setenv("DISCORD_PUBLIC_KEY", testPublicKey)
	t.Setenv("DISCORD_TOKEN_PARAMETER", "/eventboard/bot-token")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "from_env", cfg.Store.TableName)
	assert.Equal(t, "@every 10m", cfg.Dashboard.RefreshSchedule)
	assert.Equal(t, "/eventboard/bot-token", cfg.Discord.TokenParameter)
	require.NoError(t, cfg.Validate())

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultAPIBaseURL, cfg.Discord.APIBaseURL)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(writeFile(t, "config.json", "{"))
	assert.Error(t, err)
}

func TestValidateFailsFast(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.Contains(msg, "table name is not set"), msg)
	assert.True(t, strings.Contains(msg, "public key is not set"), msg)
	assert.True(t, strings.Contains(msg, "credential source"), msg)

	cfg.Store.TableName = "events"
	cfg.Discord.BotToken = "abc"
	cfg.Discord.PublicKey = "not-hex"
	assert.ErrorContains(t, cfg.Validate(), "32 bytes of hex")

	cfg.Discord.PublicKey = testPublicKey
	cfg.Store.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "unknown store driver")

	cfg.Store.Driver = DriverDynamoDB
	cfg.Log.Level = "loud"
	assert.ErrorContains(t, cfg.Validate(), "invalid log level")
}
