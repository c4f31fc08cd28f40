// Package config loads the engine's INI-style configuration file
// (general/repository/webdriver/security sections) via
// github.com/spf13/viper, producing a typed Config or a *errs.ConfigError
// naming the first invalid key. See SPEC_FULL.md §6.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"dev/bravebird/workflow-engine/pkg/errs"
)

// RepositoryType discriminates the persistence backend.
type RepositoryType string

const (
	RepositoryFileSystem RepositoryType = "file_system"
	RepositoryDatabase   RepositoryType = "database"
)

// LogLevel mirrors the General.log_level values spec.md §6 documents.
type LogLevel string

const (
	LogDebug    LogLevel = "DEBUG"
	LogInfo     LogLevel = "INFO"
	LogWarning  LogLevel = "WARNING"
	LogError    LogLevel = "ERROR"
	LogCritical LogLevel = "CRITICAL"
)

// General holds the [General] section.
type General struct {
	LogLevel LogLevel
	LogFile  string
}

// Repository holds the [Repository] section.
type Repository struct {
	Type            RepositoryType
	WorkflowsPath   string
	CredentialsPath string
	DBPath          string
	CreateIfMissing bool
}

// WebDriver holds the [WebDriver] section.
type WebDriver struct {
	DefaultBrowser string
	DriverPaths    map[string]string // "<browser>_driver_path" entries, keyed by browser
	ImplicitWait   int               // seconds
}

// Security holds the [Security] section.
type Security struct {
	PasswordHashMethod string
	PasswordSaltLength int
}

// Config is the fully decoded, validated configuration.
type Config struct {
	General    General
	Repository Repository
	WebDriver  WebDriver
	Security   Security
}

var validBrowsers = map[string]bool{"chrome": true, "firefox": true, "edge": true, "safari": true}
var validLogLevels = map[LogLevel]bool{LogDebug: true, LogInfo: true, LogWarning: true, LogError: true, LogCritical: true}

// Load reads path (an INI file) and returns a validated Config.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	v.SetDefault("general.log_level", string(LogInfo))
	v.SetDefault("general.log_file", "")
	v.SetDefault("repository.type", string(RepositoryFileSystem))
	v.SetDefault("repository.create_if_missing", true)
	v.SetDefault("webdriver.default_browser", "chrome")
	v.SetDefault("webdriver.implicit_wait", 10)
	v.SetDefault("security.password_hash_method", "pbkdf2:sha256:100000")
	v.SetDefault("security.password_salt_length", 16)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, &errs.ConfigError{Key: path, Message: err.Error()}
	}

	cfg := Config{
		General: General{
			LogLevel: LogLevel(strings.ToUpper(v.GetString("general.log_level"))),
			LogFile:  v.GetString("general.log_file"),
		},
		Repository: Repository{
			Type:            RepositoryType(v.GetString("repository.type")),
			WorkflowsPath:   v.GetString("repository.workflows_path"),
			CredentialsPath: v.GetString("repository.credentials_path"),
			DBPath:          v.GetString("repository.db_path"),
			CreateIfMissing: v.GetBool("repository.create_if_missing"),
		},
		WebDriver: WebDriver{
			DefaultBrowser: strings.ToLower(v.GetString("webdriver.default_browser")),
			ImplicitWait:   v.GetInt("webdriver.implicit_wait"),
			DriverPaths:    driverPaths(v),
		},
		Security: Security{
			PasswordHashMethod: v.GetString("security.password_hash_method"),
			PasswordSaltLength: v.GetInt("security.password_salt_length"),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// driverPaths collects every "webdriver.<browser>_driver_path" key into
// a map keyed by browser name.
func driverPaths(v *viper.Viper) map[string]string {
	paths := make(map[string]string)
	for browser := range validBrowsers {
		key := fmt.Sprintf("webdriver.%s_driver_path", browser)
		if p := v.GetString(key); p != "" {
			paths[browser] = p
		}
	}
	return paths
}

func validate(cfg Config) error {
	if !validLogLevels[cfg.General.LogLevel] {
		return &errs.ConfigError{Key: "general.log_level", Message: fmt.Sprintf("invalid log level %q", cfg.General.LogLevel)}
	}
	switch cfg.Repository.Type {
	case RepositoryFileSystem:
		if cfg.Repository.WorkflowsPath == "" {
			return &errs.ConfigError{Key: "repository.workflows_path", Message: "required for the file_system backend"}
		}
	case RepositoryDatabase:
		if cfg.Repository.DBPath == "" {
			return &errs.ConfigError{Key: "repository.db_path", Message: "required for the database backend"}
		}
	default:
		return &errs.ConfigError{Key: "repository.type", Message: fmt.Sprintf("must be file_system or database, got %q", cfg.Repository.Type)}
	}
	if !validBrowsers[cfg.WebDriver.DefaultBrowser] {
		return &errs.ConfigError{Key: "webdriver.default_browser", Message: fmt.Sprintf("unsupported browser %q", cfg.WebDriver.DefaultBrowser)}
	}
	if cfg.WebDriver.ImplicitWait < 0 {
		return &errs.ConfigError{Key: "webdriver.implicit_wait", Message: "must be a non-negative integer"}
	}
	if cfg.Security.PasswordSaltLength < 8 {
		return &errs.ConfigError{Key: "security.password_salt_length", Message: "must be >= 8"}
	}
	return nil
}
