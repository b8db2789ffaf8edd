// Package config loads the feeder configuration from configs/config.yml,
// a .env file and FEEDER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pet_feeder/internal/broadcast"
	"pet_feeder/internal/engine"
	"pet_feeder/internal/hardware"
	"pet_feeder/internal/server"
	"pet_feeder/internal/service"
)

const envPrefix = "FEEDER"

type Config struct {
	Port         string             `mapstructure:"port"`
	Log          LogConfig          `mapstructure:"log"`
	DB           DBConfig           `mapstructure:"db"`
	Server       server.Config      `mapstructure:"server"`
	Feeder       FeederConfig       `mapstructure:"feeder"`
	Hub          HubConfig          `mapstructure:"hub"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	HistoryCache time.Duration      `mapstructure:"history_cache_ttl"`
	Auth         AuthConfig         `mapstructure:"auth"`
	MQTT         MQTTConfig         `mapstructure:"mqtt"`
	Push         PushConfig         `mapstructure:"push"`
	Notification NotificationConfig `mapstructure:"notification"`
	Simulator    SimulatorConfig    `mapstructure:"simulator"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// FeederConfig mirrors engine.Tuning.
type FeederConfig struct {
	WeightRateThreshold     float64       `mapstructure:"weight_rate_threshold"`
	SafetyWeightGap         float64       `mapstructure:"safety_weight_gap"`
	ContainerEmptyThreshold float64       `mapstructure:"container_empty_threshold"`
	NoContainerThreshold    float64       `mapstructure:"no_container_threshold"`
	PlateEmptyThreshold     float64       `mapstructure:"plate_empty_threshold"`
	NormalPeriod            time.Duration `mapstructure:"normal_period"`
	FastPeriod              time.Duration `mapstructure:"fast_period"`
	Cooldown                time.Duration `mapstructure:"cooldown"`
	MotorCheckWait          time.Duration `mapstructure:"motor_check_wait"`
	MaxHistoryBuffer        int           `mapstructure:"max_history_buffer"`
	StaleLimit              int           `mapstructure:"stale_limit"`
	Timezone                string        `mapstructure:"timezone"`
}

type HubConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RateLimitConfig struct {
	PerSec float64 `mapstructure:"per_sec"`
	Burst  int     `mapstructure:"burst"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	PasswordHash string        `mapstructure:"password_hash"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type MQTTConfig struct {
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	KeepAlive      time.Duration `mapstructure:"keep_alive"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	QueueSize      int           `mapstructure:"queue_size"`
}

type PushConfig struct {
	VAPIDPublicKey  string        `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string        `mapstructure:"vapid_private_key"`
	Subscriber      string        `mapstructure:"subscriber"` // mailto: or https: contact
	TTL             int           `mapstructure:"ttl"`
	Cooldown        time.Duration `mapstructure:"cooldown"`
}

type NotificationConfig struct {
	Workers int           `mapstructure:"workers"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SimulatorConfig struct {
	ContainerGrams float64 `mapstructure:"container_grams"`
	FlowRate       float64 `mapstructure:"flow_rate"`
	EatRate        float64 `mapstructure:"eat_rate"`
	VesselWeight   float64 `mapstructure:"vessel_weight"`
	RawFactor      float64 `mapstructure:"raw_factor"`
	RawZero        int64   `mapstructure:"raw_zero"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	t := engine.DefaultTuning()

	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "feeder.db")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("feeder.weight_rate_threshold", t.WeightRateThreshold)
	v.SetDefault("feeder.safety_weight_gap", t.SafetyWeightGap)
	v.SetDefault("feeder.container_empty_threshold", t.ContainerEmptyThreshold)
	v.SetDefault("feeder.no_container_threshold", t.NoContainerThreshold)
	v.SetDefault("feeder.plate_empty_threshold", t.PlateEmptyThreshold)
	v.SetDefault("feeder.normal_period", t.NormalPeriod)
	v.SetDefault("feeder.fast_period", t.FastPeriod)
	v.SetDefault("feeder.cooldown", t.Cooldown)
	v.SetDefault("feeder.motor_check_wait", t.MotorCheckWait)
	v.SetDefault("feeder.max_history_buffer", t.MaxHistoryBuffer)
	v.SetDefault("feeder.stale_limit", t.StaleLimit)
	v.SetDefault("feeder.timezone", "UTC")

	v.SetDefault("hub.cleanup_interval", 10*time.Second)
	v.SetDefault("ratelimit.per_sec", 10.0)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("history_cache_ttl", 2*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "pet-feeder")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "feeder")
	v.SetDefault("mqtt.keep_alive", 30*time.Second)
	v.SetDefault("mqtt.reconnect_delay", 5*time.Second)
	v.SetDefault("mqtt.queue_size", 32)

	v.SetDefault("push.vapid_public_key", "")
	v.SetDefault("push.vapid_private_key", "")
	v.SetDefault("push.subscriber", "")
	v.SetDefault("push.ttl", 3600)
	v.SetDefault("push.cooldown", time.Hour)

	v.SetDefault("notification.workers", 2)
	v.SetDefault("notification.timeout", 10*time.Second)

	v.SetDefault("simulator.container_grams", hardware.DefaultContainerGrams)
	v.SetDefault("simulator.flow_rate", hardware.DefaultFlowRate)
	v.SetDefault("simulator.eat_rate", hardware.DefaultEatRate)
	v.SetDefault("simulator.vessel_weight", hardware.DefaultVesselWeight)
	v.SetDefault("simulator.raw_factor", hardware.DefaultRawFactor)
	v.SetDefault("simulator.raw_zero", 0)

	v.SetDefault("metrics.namespace", "feeder")
}

// Load reads .env (if present), then config.yml from the given directories
// (default "configs"), then FEEDER_* environment overrides such as
// FEEDER_MQTT_BROKER. A missing config file is not an error.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Tuning converts the feeder section into engine tuning.
func (f FeederConfig) Tuning() (engine.Tuning, error) {
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return engine.Tuning{}, fmt.Errorf("feeder.timezone: %w", err)
	}
	t := engine.Tuning{
		WeightRateThreshold:     f.WeightRateThreshold,
		SafetyWeightGap:         f.SafetyWeightGap,
		ContainerEmptyThreshold: f.ContainerEmptyThreshold,
		NoContainerThreshold:    f.NoContainerThreshold,
		PlateEmptyThreshold:     f.PlateEmptyThreshold,
		NormalPeriod:            f.NormalPeriod,
		FastPeriod:              f.FastPeriod,
		Cooldown:                f.Cooldown,
		MotorCheckWait:          f.MotorCheckWait,
		MaxHistoryBuffer:        f.MaxHistoryBuffer,
		StaleLimit:              f.StaleLimit,
		Location:                loc,
	}
	switch {
	case t.NormalPeriod <= 0 || t.FastPeriod <= 0:
		return engine.Tuning{}, errors.New("feeder: sampling periods must be positive")
	case t.FastPeriod > t.NormalPeriod:
		return engine.Tuning{}, errors.New("feeder: fast_period must not exceed normal_period")
	case t.MaxHistoryBuffer < 1:
		return engine.Tuning{}, errors.New("feeder: max_history_buffer must be at least 1")
	case t.StaleLimit < 1:
		return engine.Tuning{}, errors.New("feeder: stale_limit must be at least 1")
	}
	return t, nil
}

func (m MQTTConfig) Publisher() broadcast.MQTTConfig {
	return broadcast.MQTTConfig{
		Broker:         m.Broker,
		ClientID:       m.ClientID,
		Username:       m.Username,
		Password:       m.Password,
		TopicPrefix:    m.TopicPrefix,
		KeepAlive:      m.KeepAlive,
		ReconnectDelay: m.ReconnectDelay,
		QueueSize:      m.QueueSize,
	}
}

func (s SimulatorConfig) Rig() hardware.Config {
	return hardware.Config{
		ContainerGrams: s.ContainerGrams,
		FlowRate:       s.FlowRate,
		EatRate:        s.EatRate,
		VesselWeight:   s.VesselWeight,
		RawFactor:      s.RawFactor,
		RawZero:        s.RawZero,
	}
}

func (a AuthConfig) Service() service.AuthConfig {
	return service.AuthConfig{Secret: a.JWTSecret, PasswordHash: a.PasswordHash, TokenTTL: a.TokenTTL}
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != ""
}
