package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexandre-normand/dailyscot/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func envOf(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

var completeEnv = map[string]string{
	"SLACK_BOT_TOKEN":  "xoxb-1",
	"SLACK_APP_TOKEN":  "xapp-1",
	"SLACK_CHANNEL_ID": "C1",
	"USER_ID":          "U1",
}

// setEnv sets vals in the process environment for the duration of the test and returns their lookup
func setEnv(t *testing.T, vals map[string]string) func(string) (string, bool) {
	for k, v := range vals {
		t.Setenv(k, v)
	}

	return envOf(vals)
}

func TestLoadConfigFromEnv(t *testing.T) {
	v, err := loadConfig("", "", setEnv(t, completeEnv))

	require.NoError(t, err)
	assert.Equal(t, "xoxb-1", v.GetString(config.TokenKey))
	assert.Equal(t, "C1", v.GetString(config.ChannelIDKey))
	assert.Equal(t, config.SocketMode, v.GetString(config.IngressModeKey))
}

func TestLoadConfigWithMissingValues(t *testing.T) {
	_, err := loadConfig("", "", setEnv(t, map[string]string{"SLACK_BOT_TOKEN": "xoxb-1", "SLACK_CHANNEL_ID": ""}))

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), config.ChannelIDKey)
	}
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SLACK_BOT_TOKEN=xoxb-file\nSLACK_APP_TOKEN=xapp-file\nSLACK_CHANNEL_ID=C9\nUSER_ID=U9\nWEBHOOK_MODE=false\n"), 0644))
	// godotenv never overrides variables already set, so the test owns them
	for _, k := range []string{"SLACK_BOT_TOKEN", "SLACK_APP_TOKEN", "SLACK_CHANNEL_ID", "USER_ID"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	v, err := loadConfig(envFile, "", os.LookupEnv)

	require.NoError(t, err)
	assert.Equal(t, "xoxb-file", v.GetString(config.TokenKey))
	assert.Equal(t, "C9", v.GetString(config.ChannelIDKey))
	assert.Equal(t, config.SocketMode, v.GetString(config.IngressModeKey))
}

func TestLoadConfigWithMissingEnvFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"), "", setEnv(t, completeEnv))

	assert.NoError(t, err)
}

func TestLoadConfigWithConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "dailyscot.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("dailyBotName: standup\nschedule:\n  missedCheckAt: \"18:00\"\n"), 0644))

	v, err := loadConfig("", configFile, setEnv(t, completeEnv))

	require.NoError(t, err)
	assert.Equal(t, "standup", v.GetString(config.DailyBotNameKey))
	assert.Equal(t, "18:00", v.GetString(config.MissedCheckAtKey))
}

func TestLoadConfigWithMissingConfigFile(t *testing.T) {
	_, err := loadConfig("", filepath.Join(t.TempDir(), "missing.yaml"), setEnv(t, completeEnv))

	assert.Error(t, err)
}

func TestNewLogOptionWithLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "dailyscot.log")

	o, logger, closeLog, err := newLogOption(logFile)
	require.NoError(t, err)
	assert.NotNil(t, o)

	logger.Printf("Authenticated as [dailyscot]")
	closeLog()

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "dailyscot: ")
	assert.Contains(t, string(logs), "Authenticated as [dailyscot]")
}

func TestNewLogOptionDefaultsToStdout(t *testing.T) {
	o, logger, closeLog, err := newLogOption("")
	require.NoError(t, err)
	defer closeLog()

	assert.NotNil(t, o)
	assert.Equal(t, os.Stdout, logger.Writer())
}

func TestNewLogOptionWithUnwritablePath(t *testing.T) {
	_, _, _, err := newLogOption(filepath.Join(t.TempDir(), "missing", "dailyscot.log"))

	assert.Error(t, err)
}

func TestNewStorerForEachDriver(t *testing.T) {
	for _, driver := range []string{config.MemoryDriver, config.LevelDBDriver, config.SQLiteDriver} {
		t.Run(driver, func(t *testing.T) {
			v := config.NewViperWithDefaults()
			v.Set(config.StorageDriverKey, driver)
			v.Set(config.StoragePathKey, t.TempDir())

			s, err := newStorer(v, noop.NewMeterProvider().Meter("test"))
			require.NoError(t, err)
			defer s.Close()

			_, err = s.AppendMessage("2026-03-03", "Fixed bug X", time.Now())
			require.NoError(t, err)
			msgs, err := s.ListMessages("2026-03-03")
			require.NoError(t, err)
			assert.Len(t, msgs, 1)
		})
	}
}

func TestGCloudClientOptions(t *testing.T) {
	v := config.NewViperWithDefaults()
	assert.Empty(t, gcloudClientOptions(v))

	v.Set(config.GCloudCredsFileKey, "/etc/dailyscot/gcloud.json")
	assert.Len(t, gcloudClientOptions(v), 1)
}

func TestNewStorerWithUnsupportedDriver(t *testing.T) {
	v := config.NewViperWithDefaults()
	v.Set(config.StorageDriverKey, "floppy")

	_, err := newStorer(v, noop.NewMeterProvider().Meter("test"))

	assert.IsType(t, &config.Error{}, err)
}
