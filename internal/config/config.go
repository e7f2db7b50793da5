package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// 规则预设：default 或 classic
	RulesPreset string `mapstructure:"rules_preset"`

	// 超时后由计时服务代替玩家提交默认输入，0 表示不限时
	ProposeTimeout time.Duration `mapstructure:"propose_timeout"`
	VoteTimeout    time.Duration `mapstructure:"vote_timeout"`
	ActionTimeout  time.Duration `mapstructure:"action_timeout"`

	GameTTL         time.Duration `mapstructure:"game_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`

	// 实际读取的配置文件路径，为空表示只用了默认值和环境变量
	ConfigFile string `mapstructure:"-"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("rules_preset", "default")
	v.SetDefault("propose_timeout", "90s")
	v.SetDefault("vote_timeout", "60s")
	v.SetDefault("action_timeout", "15s")
	v.SetDefault("game_ttl", "2h")
	v.SetDefault("cleanup_interval", "1m")
}

// InitConfig 依次读取 .env、app_config.json 和 MINDNIGHT_ 前缀的环境变量，后者优先
func InitConfig() *AppConfig {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetEnvPrefix("mindnight")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("加载配置失败: %w", err))
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}
	config.ConfigFile = v.ConfigFileUsed()

	return &config
}
