package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	JWT      JWTConfig       `mapstructure:"jwt"`
	Game     GameConfig      `mapstructure:"game"`
	Admin    AdminSeedConfig `mapstructure:"admin"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

// DatabaseConfig is optional: an empty DSN runs the server in ephemeral mode
// where all identities are guests and nothing survives the process.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig is optional the same way: an empty addr disables chat history
// and the logout denylist.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type GameConfig struct {
	DefaultSmallBlind int64 `mapstructure:"defaultSmallBlind"`
	DefaultBigBlind   int64 `mapstructure:"defaultBigBlind"`
	StartingChips     int64 `mapstructure:"startingChips"`
	RevealSeconds     int   `mapstructure:"revealSeconds"`
}

type AdminSeedConfig struct {
	DefaultUsername string `mapstructure:"defaultUsername"`
	DefaultPassword string `mapstructure:"defaultPassword"`
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("jwt.expire", 168)
	viper.SetDefault("game.defaultSmallBlind", 10)
	viper.SetDefault("game.defaultBigBlind", 20)
	viper.SetDefault("game.startingChips", 1000)
	viper.SetDefault("game.revealSeconds", 3)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
