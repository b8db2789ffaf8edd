package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "feeder.db", cfg.DB.Path)
	assert.Equal(t, 2*time.Second, cfg.Feeder.NormalPeriod)
	assert.Equal(t, 100, cfg.Feeder.MaxHistoryBuffer)
	assert.Equal(t, 10*time.Second, cfg.Hub.CleanupInterval)
	assert.Equal(t, "feeder", cfg.MQTT.TopicPrefix)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.False(t, cfg.Push.Enabled())
	assert.Equal(t, 1500.0, cfg.Simulator.ContainerGrams)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
port: "9090"
feeder:
  fast_period: 250ms
  timezone: Europe/Berlin
mqtt:
  broker: broker.local:1883
push:
  vapid_public_key: pub
  vapid_private_key: priv
`)
	t.Setenv("FEEDER_PORT", "7070")
	t.Setenv("FEEDER_FEEDER_STALE_LIMIT", "5")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port, "env wins over file")
	assert.Equal(t, 5, cfg.Feeder.StaleLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.Feeder.FastPeriod)
	assert.Equal(t, "broker.local:1883", cfg.MQTT.Publisher().Broker)
	assert.True(t, cfg.Push.Enabled())
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := writeConfig(t, "port: [unterminated\n")
	_, err := Load(dir)
	require.Error(t, err)
}

func TestFeederTuning(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	tuning, err := cfg.Feeder.Tuning()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, tuning.Location)
	assert.Equal(t, -10.0, tuning.NoContainerThreshold)
	assert.Equal(t, 5*time.Second, tuning.Cooldown)

	bad := cfg.Feeder
	bad.Timezone = "Mars/Olympus"
	_, err = bad.Tuning()
	assert.Error(t, err)

	bad = cfg.Feeder
	bad.FastPeriod = 10 * time.Second
	_, err = bad.Tuning()
	assert.Error(t, err)

	bad = cfg.Feeder
	bad.StaleLimit = 0
	_, err = bad.Tuning()
	assert.Error(t, err)
}

func TestConversions(t *testing.T) {
	cfg := Config{
		Auth:      AuthConfig{JWTSecret: "s", PasswordHash: "h", TokenTTL: time.Hour},
		Simulator: SimulatorConfig{ContainerGrams: 800, RawFactor: 420, RawZero: 8000},
	}
	a := cfg.Auth.Service()
	assert.Equal(t, "s", a.Secret)
	assert.Equal(t, time.Hour, a.TokenTTL)

	rig := cfg.Simulator.Rig()
	assert.Equal(t, 800.0, rig.ContainerGrams)
	assert.Equal(t, int64(8000), rig.RawZero)
}
