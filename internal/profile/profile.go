package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Default file names inside the data directory.
const (
	DefaultScheduleFile    = "记录.xlsx"
	DefaultScheduleSidecar = "schedules.json"
	DefaultFeedbackSidecar = "feedbacks.json"
)

// Profile is the configuration shared by the CLI and the HTTP server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string `yaml:"mode" mapstructure:"mode"`
	// Addr is the binding address for server
	Addr string `yaml:"addr" mapstructure:"addr"`
	// Port is the binding port for server
	Port int `yaml:"port" mapstructure:"port"`
	// Data is the data directory
	Data string `yaml:"data" mapstructure:"data"`
	// Version is the current version of server
	Version string `yaml:"-" mapstructure:"-"`
	// Timezone decides what "today" and "next week" mean. Default: Local
	Timezone string `yaml:"timezone" mapstructure:"timezone"`

	// ScheduleFile is the schedule spreadsheet. Relative paths resolve
	// against Data.
	ScheduleFile string `yaml:"schedule_file" mapstructure:"schedule_file"`
	// ScheduleSidecar is the JSON snapshot written after each save. Empty
	// disables it.
	ScheduleSidecar string `yaml:"schedule_sidecar" mapstructure:"schedule_sidecar"`
	// FeedbackSidecar stores daily feedback.
	FeedbackSidecar string `yaml:"feedback_sidecar" mapstructure:"feedback_sidecar"`

	// HTTP API security
	APIUsername     string `yaml:"api_username" mapstructure:"api_username"`           // API_USERNAME (default: admin)
	APIPassword     string `yaml:"api_password" mapstructure:"api_password"`           // API_PASSWORD
	APIPasswordHash string `yaml:"api_password_hash" mapstructure:"api_password_hash"` // bcrypt hash, wins over APIPassword
	RateLimitHour   int    `yaml:"rate_limit_hour" mapstructure:"rate_limit_hour"`     // default: 100
	RateLimitDay    int    `yaml:"rate_limit_day" mapstructure:"rate_limit_day"`       // default: 1000

	// AI Configuration
	AILLMProvider     string  `yaml:"ai_llm_provider" mapstructure:"ai_llm_provider"`         // default: siliconflow
	AILLMModel        string  `yaml:"ai_llm_model" mapstructure:"ai_llm_model"`               // default per provider
	AIAPIKey          string  `yaml:"ai_api_key" mapstructure:"ai_api_key"`                   // DEEPSEEK_API_KEY
	AIBaseURL         string  `yaml:"ai_base_url" mapstructure:"ai_base_url"`                 // default per provider
	AITemperature     float64 `yaml:"ai_temperature" mapstructure:"ai_temperature"`           // default: 0.7
	AITopP            float64 `yaml:"ai_top_p" mapstructure:"ai_top_p"`                       // default: 1.0
	AIMaxTokens       int     `yaml:"ai_max_tokens" mapstructure:"ai_max_tokens"`             // default: 3000
	OptimizeMaxTokens int     `yaml:"optimize_max_tokens" mapstructure:"optimize_max_tokens"` // default: 2000
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an API key is configured, or the provider needs none.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != "" || p.AILLMProvider == "ollama"
}

// IsAuthEnabled returns true if the HTTP API requires basic auth.
func (p *Profile) IsAuthEnabled() bool {
	return p.APIPassword != "" || p.APIPasswordHash != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv fills fields that are still empty from the legacy environment
// variables used by earlier deployments. Values set by flags or the config
// file win.
func (p *Profile) FromEnv() {
	setString := func(field *string, keys ...string) {
		if *field != "" {
			return
		}
		for _, key := range keys {
			if val := os.Getenv(key); val != "" {
				*field = val
				return
			}
		}
	}

	setString(&p.AIAPIKey, "DEEPSEEK_API_KEY", "SILICONFLOW_API_KEY")
	setString(&p.APIPassword, "API_PASSWORD")
	setString(&p.APIPasswordHash, "API_PASSWORD_HASH")

	if p.AIBaseURL == "" {
		p.AIBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if p.AILLMModel == "" {
		p.AILLMModel = os.Getenv("LLM_MODEL")
	}
	if p.APIUsername == "" {
		p.APIUsername = getEnvOrDefault("API_USERNAME", "admin")
	}
	if p.RateLimitHour == 0 {
		p.RateLimitHour = atoiOrZero(os.Getenv("API_RATE_LIMIT_HOUR"))
	}
	if p.RateLimitDay == 0 {
		p.RateLimitDay = atoiOrZero(os.Getenv("API_RATE_LIMIT_DAY"))
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func resolve(dataDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dataDir, path)
}

// Validate fills defaults and resolves every file path against the data
// directory.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "bebop")
		} else {
			p.Data = "/var/opt/bebop"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.ScheduleFile == "" {
		p.ScheduleFile = DefaultScheduleFile
	}
	if p.FeedbackSidecar == "" {
		p.FeedbackSidecar = DefaultFeedbackSidecar
	}
	p.ScheduleFile = resolve(dataDir, p.ScheduleFile)
	p.ScheduleSidecar = resolve(dataDir, p.ScheduleSidecar)
	p.FeedbackSidecar = resolve(dataDir, p.FeedbackSidecar)

	if p.Timezone == "" {
		p.Timezone = "Local"
	}
	if p.Timezone != "Local" && p.Timezone != "UTC" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return errors.Wrapf(err, "invalid timezone %q", p.Timezone)
		}
	}

	if p.Addr == "" {
		p.Addr = "127.0.0.1"
	}
	if p.Port == 0 {
		p.Port = 8081
	}
	if p.APIUsername == "" {
		p.APIUsername = "admin"
	}
	if p.RateLimitHour <= 0 {
		p.RateLimitHour = 100
	}
	if p.RateLimitDay <= 0 {
		p.RateLimitDay = 1000
	}

	if p.AILLMProvider == "" {
		p.AILLMProvider = "siliconflow"
	}
	if p.AITemperature == 0 {
		p.AITemperature = 0.7
	}
	if p.AITopP == 0 {
		p.AITopP = 1.0
	}
	if p.AIMaxTokens == 0 {
		p.AIMaxTokens = 3000
	}
	if p.OptimizeMaxTokens == 0 {
		p.OptimizeMaxTokens = 2000
	}

	return nil
}
