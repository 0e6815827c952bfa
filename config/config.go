package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Game   GameConfig   `mapstructure:"game"`
	Ledger LedgerConfig `mapstructure:"ledger"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress       string        `mapstructure:"http_address"`
	RPCAddress        string        `mapstructure:"rpc_address"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	SendBuffer        int           `mapstructure:"send_buffer"`
	MetricsNamespace  string        `mapstructure:"metrics_namespace"`
}

// GameConfig holds the round economics and timings.
type GameConfig struct {
	MinStake       int64         `mapstructure:"min_stake"`
	MaxStake       int64         `mapstructure:"max_stake"`
	DefaultBalance int64         `mapstructure:"default_balance"`
	BettingSeconds int           `mapstructure:"betting_seconds"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	FlipDelay      time.Duration `mapstructure:"flip_delay"`
	ResultDelay    time.Duration `mapstructure:"result_delay"`
	StatsInterval  time.Duration `mapstructure:"stats_interval"`
	TimerTick      time.Duration `mapstructure:"timer_resolution"`
	Seed           int64         `mapstructure:"seed"`
}

type LedgerConfig struct {
	Driver     string         `mapstructure:"driver"`
	BufferSize int            `mapstructure:"buffer_size"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
	MaxLen   int64  `mapstructure:"max_len"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":10000")
	v.SetDefault("server.rpc_address", ":10001")
	v.SetDefault("server.heartbeat_interval", 30*time.Second)
	v.SetDefault("server.send_buffer", 64)
	v.SetDefault("server.metrics_namespace", "coinflip")

	v.SetDefault("game.min_stake", 10)
	v.SetDefault("game.max_stake", 10000)
	v.SetDefault("game.default_balance", 1000)
	v.SetDefault("game.betting_seconds", 30)
	v.SetDefault("game.tick_interval", time.Second)
	v.SetDefault("game.flip_delay", 3*time.Second)
	v.SetDefault("game.result_delay", 8*time.Second)
	v.SetDefault("game.stats_interval", 15*time.Second)
	v.SetDefault("game.timer_resolution", 50*time.Millisecond)
	v.SetDefault("game.seed", 0)

	v.SetDefault("ledger.driver", "none")
	v.SetDefault("ledger.buffer_size", 256)
	v.SetDefault("ledger.postgres.host", "localhost")
	v.SetDefault("ledger.postgres.port", 5432)
	v.SetDefault("ledger.postgres.user", "postgres")
	v.SetDefault("ledger.postgres.dbname", "coinflip")
	v.SetDefault("ledger.redis.addr", "localhost:6379")
	v.SetDefault("ledger.redis.key", "coinflip:rounds")
	v.SetDefault("ledger.redis.max_len", 10000)
	v.SetDefault("ledger.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("ledger.kafka.topic", "coinflip.rounds")

	v.SetDefault("log.development", false)
}

// LoadConfig reads config.yaml from path. A missing file is not an error;
// defaults and environment variables (SERVER_HTTP_ADDRESS, GAME_MIN_STAKE, ...)
// still apply. PORT, when set, overrides the HTTP listen port.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.HTTPAddress = ":" + port
	}
	return &cfg, nil
}

// BettingWindow is the full countdown duration of a room.
func (g GameConfig) BettingWindow() time.Duration {
	return time.Duration(g.BettingSeconds) * g.TickInterval
}
