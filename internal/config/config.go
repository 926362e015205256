package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Reddit   RedditConfig   `yaml:"reddit"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Bot      BotConfig      `yaml:"bot"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Telegram TelegramConfig `yaml:"telegram"`
	Server   ServerConfig   `yaml:"server"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// RedditConfig contains credentials and pacing for the Reddit API.
type RedditConfig struct {
	ClientID              string `yaml:"client_id"`
	ClientSecret          string `yaml:"client_secret"`
	Username              string `yaml:"username"`
	Password              string `yaml:"password"`
	UserAgent             string `yaml:"user_agent"`
	RateLimitDelaySeconds int    `yaml:"rate_limit_delay_seconds"`
}

// GeminiConfig contains the text model settings.
type GeminiConfig struct {
	APIKey            string `yaml:"api_key"`
	ModelName         string `yaml:"model_name"`
	MaxRetries        int    `yaml:"max_retries"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// BotConfig contains limits for drafted comments and batch sizes.
type BotConfig struct {
	MinCommentLength    int  `yaml:"min_comment_length"`
	MaxCommentLength    int  `yaml:"max_comment_length"`
	CommentDelaySeconds int  `yaml:"comment_delay_seconds"`
	MaxPostsPerRequest  int  `yaml:"max_posts_per_request"`
	LenientVerdicts     bool `yaml:"lenient_verdicts"`
}

// MonitorConfig contains the keyword watch loop settings.
type MonitorConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	ErrorBackoffSeconds int `yaml:"error_backoff_seconds"`
	PageSize            int `yaml:"page_size"`
}

// TelegramConfig contains the optional match notifier settings.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// ServerConfig contains the optional status API settings.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
}

// SnapshotConfig contains the JSON export settings.
type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

// LoadConfig reads configuration from the specified YAML file. A missing
// file is not an error: credentials can come entirely from the environment
// (a .env file is picked up automatically).
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}

	file, err := os.Open(configPath)
	if err == nil {
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// Expand environment variables in secrets
	config.Reddit.ClientID = os.ExpandEnv(config.Reddit.ClientID)
	config.Reddit.ClientSecret = os.ExpandEnv(config.Reddit.ClientSecret)
	config.Reddit.Password = os.ExpandEnv(config.Reddit.Password)
	config.Gemini.APIKey = os.ExpandEnv(config.Gemini.APIKey)
	config.Telegram.BotToken = os.ExpandEnv(config.Telegram.BotToken)

	// Environment fallbacks for values not present in the file
	config.Reddit.ClientID = envOr(config.Reddit.ClientID, "REDDIT_CLIENT_ID")
	config.Reddit.ClientSecret = envOr(config.Reddit.ClientSecret, "REDDIT_CLIENT_SECRET")
	config.Reddit.Username = envOr(config.Reddit.Username, "REDDIT_USERNAME")
	config.Reddit.Password = envOr(config.Reddit.Password, "REDDIT_PASSWORD")
	config.Reddit.UserAgent = envOr(config.Reddit.UserAgent, "REDDIT_USER_AGENT")
	config.Gemini.APIKey = envOr(config.Gemini.APIKey, "GEMINI_API_KEY")
	config.Gemini.ModelName = envOr(config.Gemini.ModelName, "GEMINI_MODEL")
	config.Telegram.BotToken = envOr(config.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")

	// Set defaults
	if config.Reddit.UserAgent == "" {
		config.Reddit.UserAgent = "ScraperBot"
	}

	if config.Reddit.RateLimitDelaySeconds == 0 {
		config.Reddit.RateLimitDelaySeconds = 2
	}

	if config.Gemini.ModelName == "" {
		config.Gemini.ModelName = "gemini-2.0-flash-exp"
	}

	if config.Gemini.MaxRetries == 0 {
		config.Gemini.MaxRetries = 3
	}

	if config.Gemini.RetryDelaySeconds == 0 {
		config.Gemini.RetryDelaySeconds = 2
	}

	if config.Gemini.RequestsPerMinute == 0 {
		config.Gemini.RequestsPerMinute = 8
	}

	if config.Bot.MinCommentLength == 0 {
		config.Bot.MinCommentLength = 10
	}

	if config.Bot.MaxCommentLength == 0 {
		config.Bot.MaxCommentLength = 10000
	}

	if config.Bot.CommentDelaySeconds == 0 {
		config.Bot.CommentDelaySeconds = 10
	}

	if config.Bot.MaxPostsPerRequest == 0 {
		config.Bot.MaxPostsPerRequest = 100
	}

	if config.Monitor.PollIntervalSeconds == 0 {
		config.Monitor.PollIntervalSeconds = 300
	}

	if config.Monitor.ErrorBackoffSeconds == 0 {
		config.Monitor.ErrorBackoffSeconds = 60
	}

	if config.Monitor.PageSize == 0 {
		config.Monitor.PageSize = 10
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Snapshot.Dir == "" {
		config.Snapshot.Dir = "data"
	}

	return config, nil
}

// Validate checks that every credential the bot cannot run without is set.
func (c *Config) Validate() error {
	var missing []string

	if c.Reddit.ClientID == "" {
		missing = append(missing, "REDDIT_CLIENT_ID")
	}
	if c.Reddit.ClientSecret == "" {
		missing = append(missing, "REDDIT_CLIENT_SECRET")
	}
	if c.Reddit.Username == "" {
		missing = append(missing, "REDDIT_USERNAME")
	}
	if c.Reddit.Password == "" {
		missing = append(missing, "REDDIT_PASSWORD")
	}
	if c.Gemini.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// RateLimitDelay is the pause after every write call to the platform.
func (c RedditConfig) RateLimitDelay() time.Duration {
	return time.Duration(c.RateLimitDelaySeconds) * time.Second
}

// RetryDelay is the pause between text model retry attempts.
func (c GeminiConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// CommentDelay is the pacing between successive auto-comment attempts.
func (c BotConfig) CommentDelay() time.Duration {
	return time.Duration(c.CommentDelaySeconds) * time.Second
}

// PollInterval is the pause between monitoring scan cycles.
func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ErrorBackoff is the pause after a failed monitoring cycle.
func (c MonitorConfig) ErrorBackoff() time.Duration {
	return time.Duration(c.ErrorBackoffSeconds) * time.Second
}

func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}
