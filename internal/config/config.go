package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	AWS      AWSConfig      `yaml:"aws"`
	Verify   VerifyConfig   `yaml:"verify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AWSConfig configures the Textract and Rekognition clients. When AccessKey is
// empty the default credential chain is used.
type AWSConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type VerifyConfig struct {
	// NamesImageKey and FacesImageKey locate the operator-supplied reference
	// images inside the MinIO bucket.
	NamesImageKey string `yaml:"names_image_key"`
	FacesImageKey string `yaml:"faces_image_key"`
	// FaceMatchThreshold is on the collaborator's 0-100 similarity scale.
	FaceMatchThreshold float64 `yaml:"face_match_threshold"`
	// Policy combines the two check signals: "or" or "and".
	Policy string `yaml:"policy"`
	// NameMatchMode is "exact" (line equality) or "contains" (substring).
	NameMatchMode string `yaml:"name_match_mode"`
	// RecordWriteAttempts bounds retries of the participation-record upsert.
	RecordWriteAttempts int `yaml:"record_write_attempts"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects option values the verification core cannot interpret.
func (c *Config) Validate() error {
	switch c.Verify.Policy {
	case "or", "and":
	default:
		return fmt.Errorf("verify.policy must be \"or\" or \"and\", got %q", c.Verify.Policy)
	}
	switch c.Verify.NameMatchMode {
	case "exact", "contains":
	default:
		return fmt.Errorf("verify.name_match_mode must be \"exact\" or \"contains\", got %q", c.Verify.NameMatchMode)
	}
	if c.Verify.FaceMatchThreshold < 0 || c.Verify.FaceMatchThreshold > 100 {
		return fmt.Errorf("verify.face_match_threshold must be within [0,100], got %v", c.Verify.FaceMatchThreshold)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Verify.NamesImageKey == "" {
		cfg.Verify.NamesImageKey = "reference/names.jpg"
	}
	if cfg.Verify.FacesImageKey == "" {
		cfg.Verify.FacesImageKey = "reference/faces.jpg"
	}
	if cfg.Verify.FaceMatchThreshold == 0 {
		cfg.Verify.FaceMatchThreshold = 80
	}
	if cfg.Verify.Policy == "" {
		cfg.Verify.Policy = "or"
	}
	if cfg.Verify.NameMatchMode == "" {
		cfg.Verify.NameMatchMode = "exact"
	}
	if cfg.Verify.RecordWriteAttempts == 0 {
		cfg.Verify.RecordWriteAttempts = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PRESENCE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PRESENCE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PRESENCE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PRESENCE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PRESENCE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PRESENCE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PRESENCE_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("PRESENCE_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("PRESENCE_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("PRESENCE_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("PRESENCE_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("PRESENCE_AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("PRESENCE_AWS_ACCESS_KEY"); v != "" {
		cfg.AWS.AccessKey = v
	}
	if v := os.Getenv("PRESENCE_AWS_SECRET_KEY"); v != "" {
		cfg.AWS.SecretKey = v
	}
	if v := os.Getenv("PRESENCE_NAMES_IMAGE_KEY"); v != "" {
		cfg.Verify.NamesImageKey = v
	}
	if v := os.Getenv("PRESENCE_FACES_IMAGE_KEY"); v != "" {
		cfg.Verify.FacesImageKey = v
	}
	if v := os.Getenv("PRESENCE_FACE_MATCH_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Verify.FaceMatchThreshold = t
		}
	}
	if v := os.Getenv("PRESENCE_VERIFY_POLICY"); v != "" {
		cfg.Verify.Policy = v
	}
	if v := os.Getenv("PRESENCE_NAME_MATCH_MODE"); v != "" {
		cfg.Verify.NameMatchMode = v
	}
	if v := os.Getenv("PRESENCE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PRESENCE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
