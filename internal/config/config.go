// Package config 负责加载和管理应用程序的配置
// 使用 viper 库支持 YAML 配置文件和环境变量覆盖
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config 是应用程序的根配置结构
// 包含所有子配置模块
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`  // 服务器配置
	MySQL   MySQLConfig   `mapstructure:"mysql"`   // MySQL 配置
	Redis   RedisConfig   `mapstructure:"redis"`   // Redis 配置
	Session SessionConfig `mapstructure:"session"` // 会话配置
	AI      AIConfig      `mapstructure:"ai"`      // AI 服务配置
}

// AIConfig AI 服务配置
// 模型名称和解码参数是启动期常量（见 service 包），不开放给配置
type AIConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"` // Gemini API Key，启动时必填
}

// ServerConfig 服务器相关配置
type ServerConfig struct {
	Port   int    `mapstructure:"port"`    // 监听端口，默认 8080
	Mode   string `mapstructure:"mode"`    // 运行模式: debug / release
	WebDir string `mapstructure:"web_dir"` // 静态页面目录
}

// MySQLConfig MySQL 数据库连接配置
// 缺少 host 或 username 时，历史持久化降级为空操作（只记录日志）
type MySQLConfig struct {
	Host         string `mapstructure:"host"`           // 数据库主机地址
	Port         int    `mapstructure:"port"`           // 数据库端口
	Username     string `mapstructure:"username"`       // 数据库用户名
	Password     string `mapstructure:"password"`       // 数据库密码
	Database     string `mapstructure:"database"`       // 数据库名称
	Charset      string `mapstructure:"charset"`        // 字符集
	MaxIdleConns int    `mapstructure:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int    `mapstructure:"max_open_conns"` // 最大打开连接数
	MaxLifetime  int    `mapstructure:"max_lifetime"`   // 连接最大生命周期（秒）
}

// RedisConfig Redis 连接配置
// 仅用于发送频率限制，缺失时限流功能关闭
type RedisConfig struct {
	Host     string `mapstructure:"host"`      // Redis 主机地址
	Port     int    `mapstructure:"port"`      // Redis 端口
	Username string `mapstructure:"username"`  // Redis 用户名（阿里云需要）
	Password string `mapstructure:"password"`  // Redis 密码
	DB       int    `mapstructure:"db"`        // 数据库索引 (0-15)
	PoolSize int    `mapstructure:"pool_size"` // 连接池大小
}

// SessionConfig 匿名会话 Cookie 配置
type SessionConfig struct {
	Secret string `mapstructure:"secret"` // 会话 Cookie 的 JWT 签名密钥
}

// Validate 校验启动必需项
// 缺少 Gemini API Key 时直接启动失败（模型服务无法降级）
func (c *Config) Validate() error {
	if c.AI.GeminiAPIKey == "" {
		return errors.New("ai.gemini_api_key is required (set GEMINI_API_KEY)")
	}
	if c.Session.Secret == "" {
		return errors.New("session.secret is required (set SESSION_SECRET)")
	}
	return nil
}

// HasMySQL 判断是否配置了 MySQL 凭据
// 未配置时持久化层以空操作模式运行
func (c *Config) HasMySQL() bool {
	return c.MySQL.Host != "" && c.MySQL.Username != ""
}

// HasRedis 判断是否配置了 Redis
func (c *Config) HasRedis() bool {
	return c.Redis.Host != ""
}

// Load 从指定路径加载配置文件
// 支持环境变量覆盖配置项
// 参数:
//   - configPath: 配置文件目录路径 (如 "./configs")
//
// 返回:
//   - *Config: 配置对象
//   - error: 如果加载失败则返回错误
func Load(configPath string) (*Config, error) {
	// 创建新的 viper 实例
	v := viper.New()

	// 设置配置文件
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// 启用环境变量
	v.AutomaticEnv()
	// 将环境变量中的 _ 映射到配置的 .
	// 例如: MYSQL_HOST -> mysql.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 绑定环境变量
	bindEnvVariables(v)

	// 设置默认值（当配置文件中未指定时使用）
	setDefaults(v)

	// 读取配置文件（如果不存在则使用默认值和环境变量）
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在，继续使用默认值和环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 将配置解析到结构体
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindEnvVariables 绑定环境变量到配置项
func bindEnvVariables(v *viper.Viper) {
	// 服务器配置
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.web_dir", "SERVER_WEB_DIR")

	// MySQL 配置
	v.BindEnv("mysql.host", "MYSQL_HOST")
	v.BindEnv("mysql.port", "MYSQL_PORT")
	v.BindEnv("mysql.username", "MYSQL_USERNAME")
	v.BindEnv("mysql.password", "MYSQL_PASSWORD")
	v.BindEnv("mysql.database", "MYSQL_DATABASE")

	// Redis 配置
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.username", "REDIS_USERNAME")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// 会话配置
	v.BindEnv("session.secret", "SESSION_SECRET")

	// AI 配置
	v.BindEnv("ai.gemini_api_key", "GEMINI_API_KEY")
}

// setDefaults 设置配置项的默认值
// 当配置文件中没有指定某个值时，将使用这里设置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.web_dir", "./web")

	// MySQL 默认配置
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("mysql.max_lifetime", 3600)

	// Redis 默认配置
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)
}
