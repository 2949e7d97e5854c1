package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var valid = validator.New()

// EnvPrefix 环境变量前缀：METRICS_SERVER_ADDR -> server.addr
const EnvPrefix = "METRICS"

// Config 全局配置结构体（聚合所有核心模块）
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server" comment:"HTTP服务配置"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics" comment:"指标注册与暴露配置"`
	Log     ZapLogConfig  `yaml:"log" mapstructure:"log" comment:"日志配置"`
}

// ServerConfig HTTP服务配置（超时统一为time.Duration，支持"30s"解析）
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr" env:"SERVER_ADDR" validate:"required,hostname_port" comment:"HTTP监听地址（格式：ip:port）"`
	Engine          string        `yaml:"engine" mapstructure:"engine" env:"SERVER_ENGINE" validate:"required,oneof=http gin" comment:"HTTP引擎（http/gin）" default:"http"`
	Runtime         string        `yaml:"runtime" mapstructure:"runtime" env:"SERVER_RUNTIME" comment:"/health 返回的运行时名称，为空时取引擎名"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" env:"SERVER_READ_TIMEOUT" validate:"gt=0" comment:"读取超时时间（如30s）"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" env:"SERVER_WRITE_TIMEOUT" validate:"gt=0" comment:"写入超时时间（如30s）"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" validate:"gt=0" comment:"空闲连接超时时间（如60s）"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" validate:"gt=0" comment:"优雅关闭超时（如5s）"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Exposition   string            `yaml:"exposition" mapstructure:"exposition" env:"METRICS_EXPOSITION" validate:"required,oneof=native prometheus" comment:"/metrics 渲染方式（native/prometheus）" default:"native"`
	TypeComments bool              `yaml:"type_comments" mapstructure:"type_comments" env:"METRICS_TYPE_COMMENTS" comment:"native 渲染时输出 # HELP / # TYPE" default:"false"`
	CommonLabels map[string]string `yaml:"common_labels" mapstructure:"common_labels" env:"METRICS_COMMON_LABELS" comment:"合并进每个绑定器指标的公共标签（k=v,k2=v2）"`
	Binders      BinderConfig      `yaml:"binders" mapstructure:"binders" comment:"运行时绑定器开关"`
}

// BinderConfig 绑定器开关（去掉冗余Enable前缀）
type BinderConfig struct {
	Build     bool `yaml:"build" mapstructure:"build" env:"METRICS_BINDERS_BUILD" comment:"构建信息" default:"true"`
	Memory    bool `yaml:"memory" mapstructure:"memory" env:"METRICS_BINDERS_MEMORY" comment:"堆/栈内存" default:"true"`
	GC        bool `yaml:"gc" mapstructure:"gc" env:"METRICS_BINDERS_GC" comment:"垃圾回收" default:"true"`
	Threads   bool `yaml:"threads" mapstructure:"threads" env:"METRICS_BINDERS_THREADS" comment:"goroutine/线程" default:"true"`
	Processor bool `yaml:"processor" mapstructure:"processor" env:"METRICS_BINDERS_PROCESSOR" comment:"CPU 与负载（gopsutil）" default:"true"`
	Process   bool `yaml:"process" mapstructure:"process" env:"METRICS_BINDERS_PROCESS" comment:"进程资源（gopsutil）" default:"true"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" env:"LOG_LEVEL" validate:"required" comment:"日志级别（见 LogLevels，大小写不敏感）" default:"info"`
	Format    string `yaml:"format" mapstructure:"format" env:"LOG_FORMAT" validate:"required,oneof=json console" comment:"控制台日志格式（json/console）" default:"console"`
	Path      string `yaml:"path" mapstructure:"path" env:"LOG_PATH" validate:"required" comment:"日志存储路径" default:"./logs"`
	MaxSize   int    `yaml:"max_size" mapstructure:"max_size" env:"LOG_MAX_SIZE" validate:"gt=0" comment:"单个日志文件最大大小（MB）" default:"100"`
	MaxBackup int    `yaml:"max_backup" mapstructure:"max_backup" env:"LOG_MAX_BACKUP" validate:"gte=0" comment:"日志文件最大备份数（max_age 为 0 时生效）" default:"30"`
	MaxAge    int    `yaml:"max_age" mapstructure:"max_age" env:"LOG_MAX_AGE" validate:"gte=0" comment:"日志文件最大保存天数" default:"7"`
}

// NewDefaultConfig 创建默认配置（所有字段兜底，避免空指针/非法值）
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "0.0.0.0:8080",
			Engine:          "http",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Exposition:   "native",
			CommonLabels: map[string]string{},
			Binders: BinderConfig{
				Build:     true,
				Memory:    true,
				GC:        true,
				Threads:   true,
				Processor: true,
				Process:   true,
			},
		},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "console",
			Path:      "./logs",
			MaxSize:   100,
			MaxBackup: 30,
			MaxAge:    7,
		},
	}
}

// setDefaults 让 viper 认识所有键，AutomaticEnv 才能在 AllSettings 中生效
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.engine", d.Server.Engine)
	v.SetDefault("server.runtime", d.Server.Runtime)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("metrics.exposition", d.Metrics.Exposition)
	v.SetDefault("metrics.type_comments", d.Metrics.TypeComments)
	v.SetDefault("metrics.common_labels", d.Metrics.CommonLabels)
	v.SetDefault("metrics.binders.build", d.Metrics.Binders.Build)
	v.SetDefault("metrics.binders.memory", d.Metrics.Binders.Memory)
	v.SetDefault("metrics.binders.gc", d.Metrics.Binders.GC)
	v.SetDefault("metrics.binders.threads", d.Metrics.Binders.Threads)
	v.SetDefault("metrics.binders.processor", d.Metrics.Binders.Processor)
	v.SetDefault("metrics.binders.process", d.Metrics.Binders.Process)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backup", d.Log.MaxBackup)
	v.SetDefault("log.max_age", d.Log.MaxAge)
}

// LoadConfigWithCli 支持 time.Duration，优先级：Flags > ENV > YAML > 默认值
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	return Load(cmd.Flags(), configFile)
}

// Load 从 flag 集合、配置文件与环境变量加载配置；flags 与 configFile 均可为空
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	cfg := NewDefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	// 1. 绑定 Flags → Viper（server.read-timeout → server.read_timeout）
	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil || f.Name == "config" {
				return
			}
			bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	// 2. 解析配置文件 (--config)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// 3. 绑定环境变量 METRICS_SERVER_ADDR -> server.addr
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 解码反序列化到结构体（支持 time.Duration 与 k=v 标签）
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			labelsDecodeHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 5. 校验配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// labelsDecodeHook 把 "k=v,k2=v2" 解码为 map[string]string（来自 ENV）
func labelsDecodeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(map[string]string{}) {
		return data, nil
	}
	return ParseLabels(data.(string))
}

// ParseLabels 解析 "k=v,k2=v2"，空串返回空 map
func ParseLabels(s string) (map[string]string, error) {
	out := map[string]string{}
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("label %q must be key=value", pair)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	// 	1,校验Server服务配置
	if err := c.Server.Validate(); err != nil {
		return err
	}
	// 	2，校验指标配置
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	// 	3，校验日志配置
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}

// RuntimeName /health 中展示的运行时名称
func (s *ServerConfig) RuntimeName() string {
	if s.Runtime != "" {
		return s.Runtime
	}
	if s.Engine == "gin" {
		return "gin"
	}
	return "net/http"
}
