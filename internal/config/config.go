package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	Classifier struct {
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"classifier"`

	Actions struct {
		EscalateURL    string `yaml:"escalateUrl"`
		RiskAlertURL   string `yaml:"riskAlertUrl"`
		LogURL         string `yaml:"logUrl"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		AsyncWorkers   int64  `yaml:"asyncWorkers"`
	} `yaml:"actions"`

	Analyzers struct {
		UrgencyKeywords    []string `yaml:"urgencyKeywords"`
		ComplianceTerms    []string `yaml:"complianceTerms"`
		RiskTotalThreshold float64  `yaml:"riskTotalThreshold"`
	} `yaml:"analyzers"`

	Archive struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"archive"`

	Events struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"events"`

	Auth struct {
		// tenant -> api key; empty map disables auth
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Load reads config.yaml and fills defaults for anything omitted
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "gpt-4o-mini"
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = 8
	}
	if c.Actions.EscalateURL == "" {
		c.Actions.EscalateURL = "http://localhost:8000/crm/escalate"
	}
	if c.Actions.RiskAlertURL == "" {
		c.Actions.RiskAlertURL = "http://localhost:8000/risk_alert"
	}
	if c.Actions.LogURL == "" {
		c.Actions.LogURL = "http://localhost:8000/log"
	}
	if c.Actions.TimeoutSeconds <= 0 {
		c.Actions.TimeoutSeconds = 3
	}
	if c.Actions.AsyncWorkers <= 0 {
		c.Actions.AsyncWorkers = 4
	}
	if len(c.Analyzers.UrgencyKeywords) == 0 {
		c.Analyzers.UrgencyKeywords = []string{"urgent", "immediate", "asap", "high priority"}
	}
	if len(c.Analyzers.ComplianceTerms) == 0 {
		c.Analyzers.ComplianceTerms = []string{"GDPR", "FDA", "HIPAA"}
	}
	if c.Analyzers.RiskTotalThreshold <= 0 {
		c.Analyzers.RiskTotalThreshold = 10000
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "intake-audit"
	}
	if c.RateLimit.Capacity <= 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillRate <= 0 {
		c.RateLimit.RefillRate = 10
	}
}

// ClassifierTimeout as a duration
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// DispatchTimeout as a duration
func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.Actions.TimeoutSeconds) * time.Second
}

// MySQLDSN builds the DSN for the mysql driver
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the DSN for lib/pq
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
