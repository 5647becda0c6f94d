package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	CORS    CORSConfig
	Log     LogConfig
	School  SchoolConfig
	Reports ReportsConfig
	Metrics MetricsConfig
	Docs    DocsConfig
	CLI     CLIConfig
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchoolConfig carries the institution identity printed on every report card.
type SchoolConfig struct {
	Name    string
	Mark    string
	Tagline string
	Contact string
}

// ReportsConfig holds request defaults for report generation.
type ReportsConfig struct {
	DefaultTerm         int
	DefaultAcademicYear int
	MaxBodyBytes        int64
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// DocsConfig toggles the swagger UI outside production.
type DocsConfig struct {
	Enabled bool
}

// CLIConfig holds stream locations for the one-shot generator. Empty means stdin/stdout.
type CLIConfig struct {
	Input  string
	Output string
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags behaves like Load and additionally binds command line flags, which take precedence over the environment.
func LoadWithFlags(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.School = SchoolConfig{
		Name:    v.GetString("SCHOOL_NAME"),
		Mark:    v.GetString("SCHOOL_MARK"),
		Tagline: v.GetString("SCHOOL_TAGLINE"),
		Contact: v.GetString("SCHOOL_CONTACT"),
	}

	maxBody := v.GetInt64("REPORTS_MAX_BODY_BYTES")
	if maxBody <= 0 {
		maxBody = 8 * 1024 * 1024
	}
	cfg.Reports = ReportsConfig{
		DefaultTerm:         positiveOr(v.GetInt("REPORTS_DEFAULT_TERM"), 1),
		DefaultAcademicYear: positiveOr(v.GetInt("REPORTS_DEFAULT_ACADEMIC_YEAR"), 2026),
		MaxBodyBytes:        maxBody,
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}
	cfg.Docs = DocsConfig{Enabled: v.GetBool("ENABLE_DOCS")}

	cfg.CLI = CLIConfig{
		Input:  v.GetString("REPORTCARD_INPUT"),
		Output: v.GetString("REPORTCARD_OUTPUT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHOOL_NAME", "Kibali Academy")
	v.SetDefault("SCHOOL_MARK", "KA")
	v.SetDefault("SCHOOL_TAGLINE", "Competency-Based Curriculum · Nairobi, Kenya")
	v.SetDefault("SCHOOL_CONTACT", "Tel: +254 700 000 000  ·  admin@kibali.ac.ke")

	v.SetDefault("REPORTS_DEFAULT_TERM", 1)
	v.SetDefault("REPORTS_DEFAULT_ACADEMIC_YEAR", 2026)
	v.SetDefault("REPORTS_MAX_BODY_BYTES", 8*1024*1024)

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_DOCS", true)

	v.SetDefault("REPORTCARD_INPUT", "")
	v.SetDefault("REPORTCARD_OUTPUT", "")
}

// flagKeys names flags whose environment key is not the plain upper snake-case
// of the flag name. Stream locations are namespaced so a generic INPUT or
// OUTPUT in the caller's environment cannot redirect the generator.
var flagKeys = map[string]string{
	"input":  "REPORTCARD_INPUT",
	"output": "REPORTCARD_OUTPUT",
}

// bindFlags maps kebab-case flag names onto the upper snake-case keys used by the environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			key = strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = err
		}
	})
	return bindErr
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
