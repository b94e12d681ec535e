// Package config 加载服务配置：.env 文件、YAML 配置文件和 HOUSE_ 前缀的环境变量。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 服务配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Game      GameConfig      `mapstructure:"game"`
	Eviction  EvictionConfig  `mapstructure:"eviction"`
	Alliances AlliancesConfig `mapstructure:"alliances"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr      string  `mapstructure:"addr"`
	RateLimit float64 `mapstructure:"rate_limit"` // 每个客户端每秒请求数
	Burst     int     `mapstructure:"burst"`
}

// GameConfig 游戏配置
type GameConfig struct {
	MinPlayers int   `mapstructure:"min_players"`
	RosterSize int   `mapstructure:"roster_size"`
	AISeed     int64 `mapstructure:"ai_seed"`
}

// EvictionConfig 驱逐配置
type EvictionConfig struct {
	TieBreak string `mapstructure:"tie_break"` // first_nominee | hoh
}

// AlliancesConfig 联盟配置
type AlliancesConfig struct {
	RejectionPolicy string `mapstructure:"rejection_policy"` // cancel | drop_invitee
}

// StorageConfig 存档存储配置
type StorageConfig struct {
	Driver        string `mapstructure:"driver"` // memory | sqlite | mongo
	SQLitePath    string `mapstructure:"sqlite_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.burst", 40)
	v.SetDefault("game.min_players", 4)
	v.SetDefault("game.roster_size", 8)
	v.SetDefault("game.ai_seed", 0)
	v.SetDefault("eviction.tie_break", "first_nominee")
	v.SetDefault("alliances.rejection_policy", "cancel")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.sqlite_path", "houseguest.db")
	v.SetDefault("storage.mongo_uri", "")
	v.SetDefault("storage.mongo_database", "houseguest")
}

// Load 加载配置。path 为空时只使用默认值和环境变量；
// 当前目录下的 .env 文件会先被载入环境变量。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("HOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	switch c.Eviction.TieBreak {
	case "first_nominee", "hoh":
	default:
		return fmt.Errorf("invalid eviction.tie_break %q", c.Eviction.TieBreak)
	}
	switch c.Alliances.RejectionPolicy {
	case "cancel", "drop_invitee":
	default:
		return fmt.Errorf("invalid alliances.rejection_policy %q", c.Alliances.RejectionPolicy)
	}
	switch c.Storage.Driver {
	case "memory", "sqlite", "mongo":
	default:
		return fmt.Errorf("invalid storage.driver %q", c.Storage.Driver)
	}
	if c.Game.RosterSize < c.Game.MinPlayers {
		return fmt.Errorf("game.roster_size %d is smaller than game.min_players %d", c.Game.RosterSize, c.Game.MinPlayers)
	}
	return nil
}
