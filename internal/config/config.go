// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Form    FormConfig    `mapstructure:"form" yaml:"form"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Mail    MailConfig    `mapstructure:"mail" yaml:"mail"`
	Run     RunConfig     `mapstructure:"run" yaml:"run"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig selects and tunes the automated browser.
type BrowserConfig struct {
	// Name is the browser to drive: chrome, chromium, firefox, edge or safari.
	Name string `mapstructure:"name" yaml:"name"`
	// Driver forces the automation backend: cdp, rod or webdriver. Empty means
	// derive it from Name.
	Driver          string         `mapstructure:"driver" yaml:"driver"`
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	Stealth         bool           `mapstructure:"stealth" yaml:"stealth"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ExecPath        string         `mapstructure:"exec_path" yaml:"exec_path"`
	WebDriverURL    string         `mapstructure:"webdriver_url" yaml:"webdriver_url"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
	StartupTimeout  time.Duration  `mapstructure:"startup_timeout" yaml:"startup_timeout"`
}

// FormConfig controls how the intake form is driven.
type FormConfig struct {
	URL               string        `mapstructure:"url" yaml:"url"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ElementTimeout    time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	SettleDelay       time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	PageLoadWait      time.Duration `mapstructure:"page_load_wait" yaml:"page_load_wait"`
	DateLayout        string        `mapstructure:"date_layout" yaml:"date_layout"`
	Submit            bool          `mapstructure:"submit" yaml:"submit"`
	ArtifactsDir      string        `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
}

// ExportConfig locates the spreadsheet the generated profiles are written to.
type ExportConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Sheet string `mapstructure:"sheet" yaml:"sheet"`
}

// ArchiveConfig configures the optional S3 copy of the workbook.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	AccessKey string `mapstructure:"access_key" yaml:"-"`
	SecretKey string `mapstructure:"secret_key" yaml:"-"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
}

// MailConfig holds the static SMTP configuration for run notifications.
type MailConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	Host           string        `mapstructure:"host" yaml:"host"`
	Port           int           `mapstructure:"port" yaml:"port"`
	Username       string        `mapstructure:"username" yaml:"username"`
	Password       string        `mapstructure:"password" yaml:"-"`
	From           string        `mapstructure:"from" yaml:"from"`
	To             []string      `mapstructure:"to" yaml:"to"`
	TLS            string        `mapstructure:"tls" yaml:"tls"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	AttachWorkbook bool          `mapstructure:"attach_workbook" yaml:"attach_workbook"`
}

// RunConfig drives the scheduled loop.
type RunConfig struct {
	Count    int           `mapstructure:"count" yaml:"count"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	LockFile string        `mapstructure:"lock_file" yaml:"lock_file"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "intake-cli")
	v.SetDefault("logger.log_file", "intake.log")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.name", "chrome")
	v.SetDefault("browser.driver", "")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.stealth", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.webdriver_url", "http://localhost:4444/wd/hub")
	v.SetDefault("browser.viewport", map[string]int{"width": 1366, "height": 900})
	v.SetDefault("browser.startup_timeout", "60s")

	// -- Form --
	v.SetDefault("form.url", "https://intake.example.gov/application/start")
	v.SetDefault("form.navigation_timeout", "90s")
	v.SetDefault("form.element_timeout", "15s")
	v.SetDefault("form.poll_interval", "250ms")
	v.SetDefault("form.settle_delay", "300ms")
	v.SetDefault("form.page_load_wait", "2s")
	v.SetDefault("form.date_layout", "02/01/2006")
	v.SetDefault("form.submit", false)
	v.SetDefault("form.artifacts_dir", "artifacts")

	// -- Export --
	v.SetDefault("export.path", "profiles.xlsx")
	v.SetDefault("export.sheet", "Profiles")

	// -- Archive --
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.prefix", "intake")

	// -- Mail --
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.tls", "mandatory")
	v.SetDefault("mail.timeout", "30s")
	v.SetDefault("mail.attach_workbook", true)

	// -- Run --
	v.SetDefault("run.count", 1)
	v.SetDefault("run.interval", "0s")
	v.SetDefault("run.lock_file", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.loadSecrets()

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadSecrets overwrites every secret with its environment value. Values
// from a config file or flags are discarded.
func (c *Config) loadSecrets() {
	env := viper.New()
	_ = env.BindEnv("mail.password", "INTAKE_MAIL_PASSWORD")
	_ = env.BindEnv("archive.access_key", "AWS_ACCESS_KEY_ID")
	_ = env.BindEnv("archive.secret_key", "AWS_SECRET_ACCESS_KEY")

	c.Mail.Password = env.GetString("mail.password")
	c.Archive.AccessKey = env.GetString("archive.access_key")
	c.Archive.SecretKey = env.GetString("archive.secret_key")
}

// expandPaths resolves a leading ~ in every file system path.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.Logger.LogFile,
		&c.Export.Path,
		&c.Form.ArtifactsDir,
		&c.Run.LockFile,
		&c.Browser.ExecPath,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Form.URL == "" {
		return fmt.Errorf("form.url is a required configuration field")
	}
	if c.Export.Path == "" {
		return fmt.Errorf("export.path is a required configuration field")
	}
	if c.Run.Count <= 0 {
		return fmt.Errorf("run.count must be a positive integer")
	}
	if c.Run.Interval < 0 {
		return fmt.Errorf("run.interval must not be negative")
	}
	if c.Form.PollInterval <= 0 {
		return fmt.Errorf("form.poll_interval must be a positive duration")
	}
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Mail.Validate(); err != nil {
		return fmt.Errorf("mail configuration invalid: %w", err)
	}
	if err := c.Archive.Validate(); err != nil {
		return fmt.Errorf("archive configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the browser selection.
func (b *BrowserConfig) Validate() error {
	switch strings.ToLower(b.Driver) {
	case "", "cdp", "rod", "webdriver":
	default:
		return fmt.Errorf("driver must be one of cdp, rod, webdriver (got %q)", b.Driver)
	}
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Validate checks the mail configuration.
func (m *MailConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Host == "" {
		return fmt.Errorf("host is required when mail is enabled")
	}
	if m.Port <= 0 || m.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if m.From == "" || len(m.To) == 0 {
		return fmt.Errorf("from and at least one to address are required")
	}
	switch strings.ToLower(m.TLS) {
	case "", "mandatory", "opportunistic", "none":
	default:
		return fmt.Errorf("tls must be one of mandatory, opportunistic, none (got %q)", m.TLS)
	}
	return nil
}

// Validate checks the archive configuration.
func (a *ArchiveConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.Bucket == "" || a.Region == "" {
		return fmt.Errorf("bucket and region are required when archive is enabled")
	}
	return nil
}
