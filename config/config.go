package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config настройки процесса. Порядок: значения по умолчанию, YAML-файл из
// CONFIG_FILE, затем переменные окружения (и .env).
type Config struct {
	TelegramToken string         `yaml:"telegram_token"`
	Log           LogConfig      `yaml:"log"`
	Storage       StorageConfig  `yaml:"storage"`
	Images        ImageConfig    `yaml:"images"`
	Detector      DetectorConfig `yaml:"detector"`
	MetricsAddr   string         `yaml:"metrics_addr"`
	// AuditLogWarnEntries задаёт размер журнала аномалий, после которого пишется предупреждение
	AuditLogWarnEntries int `yaml:"audit_log_warn_entries"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

type StorageConfig struct {
	Driver      string `yaml:"driver"` // memory | sqlite | postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type ImageConfig struct {
	Driver          string `yaml:"driver"` // memory | s3
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	PublicBaseURL   string `yaml:"public_base_url"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

type DetectorConfig struct {
	Driver       string   `yaml:"driver"` // http | gocv
	URL          string   `yaml:"url"`
	Threshold    float64  `yaml:"threshold"`
	IoUThreshold float64  `yaml:"iou_threshold"`
	Timeout      Duration `yaml:"timeout"`
}

// Duration читает из YAML строки вида "30s"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std возвращает time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func defaults() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{Driver: "memory", SQLitePath: "data/vision-inspector.db"},
		Images:  ImageConfig{Driver: "memory", Region: "us-east-1"},
		Detector: DetectorConfig{
			Driver:       "http",
			Threshold:    0.1,
			IoUThreshold: 0.2,
			Timeout:      Duration(30 * time.Second),
		},
		AuditLogWarnEntries: 5000,
	}
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.TelegramToken, "TELEGRAM_TOKEN")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.SQLitePath, "SQLITE_PATH")
	setString(&c.Storage.PostgresDSN, "POSTGRES_DSN")

	setString(&c.Images.Driver, "IMAGE_STORE_DRIVER")
	setString(&c.Images.Bucket, "S3_BUCKET")
	setString(&c.Images.Region, "S3_REGION")
	setString(&c.Images.Endpoint, "S3_ENDPOINT")
	setString(&c.Images.PublicBaseURL, "S3_PUBLIC_BASE_URL")
	setString(&c.Images.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&c.Images.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")

	setString(&c.Detector.Driver, "DETECTOR_DRIVER")
	setString(&c.Detector.URL, "DETECTOR_URL")
	setString(&c.MetricsAddr, "METRICS_ADDR")

	var errs []error
	if v, ok := lookup("S3_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrapEnv("S3_PATH_STYLE", err))
		c.Images.PathStyle = b
	}
	if v, ok := lookup("DETECTOR_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		errs = append(errs, wrapEnv("DETECTOR_THRESHOLD", err))
		c.Detector.Threshold = f
	}
	if v, ok := lookup("DETECTOR_IOU_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		errs = append(errs, wrapEnv("DETECTOR_IOU_THRESHOLD", err))
		c.Detector.IoUThreshold = f
	}
	if v, ok := lookup("DETECTOR_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		errs = append(errs, wrapEnv("DETECTOR_TIMEOUT", err))
		c.Detector.Timeout = Duration(d)
	}
	if v, ok := lookup("AUDIT_LOG_WARN_ENTRIES"); ok {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapEnv("AUDIT_LOG_WARN_ENTRIES", err))
		c.AuditLogWarnEntries = n
	}
	return errors.Join(errs...)
}

// Validate проверяет согласованность драйверов и их обязательных параметров
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	switch c.Images.Driver {
	case "memory":
	case "s3":
		if c.Images.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for s3 image store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown image store driver %q", c.Images.Driver))
	}

	switch c.Detector.Driver {
	case "http", "gocv", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown detector driver %q", c.Detector.Driver))
	}
	if c.Detector.Threshold < 0 || c.Detector.Threshold > 1 {
		errs = append(errs, fmt.Errorf("detector threshold %v outside [0, 1]", c.Detector.Threshold))
	}
	if c.Detector.IoUThreshold < 0 || c.Detector.IoUThreshold > 1 {
		errs = append(errs, fmt.Errorf("detector iou threshold %v outside [0, 1]", c.Detector.IoUThreshold))
	}

	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func wrapEnv(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", key, err)
}
