package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Simulation  SimulationConfig  `mapstructure:"simulation"`
	Improvement ImprovementConfig `mapstructure:"improvement"`
	Finance     FinanceConfig     `mapstructure:"finance"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SimulationConfig 模拟默认参数，请求未指定时使用
type SimulationConfig struct {
	Records     int    `mapstructure:"records"`
	HorizonDays int    `mapstructure:"horizon_days"`
	StartDate   string `mapstructure:"start_date"` // YYYY-MM-DD
}

// ImprovementConfig 改善方案的作用系数（乘到基线记录上）
type ImprovementConfig struct {
	DowntimeFactor  float64 `mapstructure:"downtime_factor"`   // 停机时间系数，默认0.65
	CycleTimeFactor float64 `mapstructure:"cycle_time_factor"` // 实际节拍系数，默认0.85
	DefectFactor    float64 `mapstructure:"defect_factor"`     // 不良数系数，默认0.5
}

// FinanceConfig 财务测算参数
type FinanceConfig struct {
	UnitPrice  float64 `mapstructure:"unit_price"` // 单件售价（美元）
	Investment float64 `mapstructure:"investment"` // 改善方案总投资（美元）
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load() (*Config, error) {
	v := viper.New()

	// 设置配置文件
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// 配置文件不存在，使用默认值和环境变量
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 配置合法性检查，非法配置是致命错误
func (c *Config) Validate() error {
	if c.Improvement.DowntimeFactor <= 0 || c.Improvement.DowntimeFactor > 1 {
		return fmt.Errorf("improvement.downtime_factor 必须在(0,1]内: %v", c.Improvement.DowntimeFactor)
	}
	if c.Improvement.CycleTimeFactor <= 0 || c.Improvement.CycleTimeFactor > 1 {
		return fmt.Errorf("improvement.cycle_time_factor 必须在(0,1]内: %v", c.Improvement.CycleTimeFactor)
	}
	if c.Improvement.DefectFactor < 0 || c.Improvement.DefectFactor > 1 {
		return fmt.Errorf("improvement.defect_factor 必须在[0,1]内: %v", c.Improvement.DefectFactor)
	}
	if c.Finance.UnitPrice < 0 {
		return fmt.Errorf("finance.unit_price 不能为负数: %v", c.Finance.UnitPrice)
	}
	if c.Finance.Investment < 0 {
		return fmt.Errorf("finance.investment 不能为负数: %v", c.Finance.Investment)
	}
	return nil
}

// StartDateTime 解析配置的模拟起始日期，空值返回零值由模拟器取默认
func (c *SimulationConfig) StartDateTime() (time.Time, error) {
	if c.StartDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("simulation.start_date 格式错误（应为YYYY-MM-DD）: %w", err)
	}
	return t, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("simulation.records", 4000)
	v.SetDefault("simulation.horizon_days", 180)
	v.SetDefault("simulation.start_date", "2025-07-01")

	v.SetDefault("improvement.downtime_factor", 0.65)
	v.SetDefault("improvement.cycle_time_factor", 0.85)
	v.SetDefault("improvement.defect_factor", 0.5)

	v.SetDefault("finance.unit_price", 0.50)
	v.SetDefault("finance.investment", 750000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Simulation
	v.BindEnv("simulation.records", "SIMULATION_RECORDS")
	v.BindEnv("simulation.horizon_days", "SIMULATION_HORIZON_DAYS")
	v.BindEnv("simulation.start_date", "SIMULATION_START_DATE")

	// Finance
	v.BindEnv("finance.unit_price", "FINANCE_UNIT_PRICE")
	v.BindEnv("finance.investment", "FINANCE_INVESTMENT")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
}

// GetEnvOrDefault 获取环境变量，如果不存在则返回默认值
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
