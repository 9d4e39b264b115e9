package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	validator "gopkg.in/go-playground/validator.v9"
)

// Duration accepts "30s" style strings or a number of seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		d.Duration = time.Duration(v * float64(time.Second))
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d.Duration = parsed
	case nil:
		d.Duration = 0
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

type CidashConfig struct {
	API          APIConfig          `json:"api"`
	Dashboard    DashboardConfig    `json:"dashboard"`
	Storage      StorageConfig      `json:"storage"`
	Redis        string             `json:"redis"`
	Notification NotificationConfig `json:"notification"`
	IsDev        bool               `json:"is_dev"`
}

type APIConfig struct {
	URL            string   `json:"url" validate:"required,url"` // https://zuul.example.org/
	Tenant         string   `json:"tenant"`
	WebsocketURL   string   `json:"websocket_url" validate:"omitempty,url"`
	RequestTimeout Duration `json:"request_timeout"`
}

type DashboardConfig struct {
	Listen          string   `json:"listen" validate:"required"`
	RefreshInterval Duration `json:"refresh_interval"`
	RemainingPolicy string   `json:"remaining_policy" validate:"omitempty,oneof=strict computable"`
	StatusCacheTTL  Duration `json:"status_cache_ttl"`
}

type StorageConfig struct {
	Workdir      string `json:"workdir" validate:"required"` // /var/lib/cidash
	MaxSnapshots int    `json:"max_snapshots" validate:"min=0"`
}

// DBPath is the snapshot database inside the workdir.
func (c StorageConfig) DBPath() string {
	return filepath.Join(c.Workdir, "cidash.db")
}

// LogDir is where saved console logs go.
func (c StorageConfig) LogDir() string {
	return filepath.Join(c.Workdir, "logs")
}

type NotificationConfig struct {
	WebhookURL string `json:"webhook_url" validate:"omitempty,url"`
}

// Default returns the configuration used when no file sets a value.
func Default() CidashConfig {
	return CidashConfig{
		API: APIConfig{
			RequestTimeout: Duration{30 * time.Second},
		},
		Dashboard: DashboardConfig{
			Listen:          "127.0.0.1:9010",
			RefreshInterval: Duration{5 * time.Second},
			RemainingPolicy: "strict",
			StatusCacheTTL:  Duration{5 * time.Second},
		},
		Storage: StorageConfig{
			Workdir:      "/var/lib/cidash",
			MaxSnapshots: 500,
		},
	}
}

// Paths returns the config file candidates in lookup order.
func Paths() []string {
	paths := []string{}
	if configPath := os.Getenv("CIDASH_CONFIG_PATH"); configPath != "" {
		paths = append(paths, configPath)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".cidash", "config.yml"))
	}
	return append(paths,
		"/etc/cidash/config.yml",
		"./utils/config.yml",
	)
}

// LoadConfig load cidash config from file
func LoadConfig() (config CidashConfig, err error) {
	isDev := os.Getenv("DEV") == "1"

	var yamlFile []byte
	if isDev {
		yamlFile, err = os.ReadFile("./utils/config.yml")
		if err != nil {
			return
		}
	} else {
		for _, path := range Paths() {
			yamlFile, err = os.ReadFile(path)
			if err == nil {
				log.Println("load config from : ", path)
				break
			}
		}
		if err != nil {
			return
		}
	}

	return Parse(yamlFile, isDev)
}

// Parse reads a YAML config over the defaults and validates it.
func Parse(yamlFile []byte, isDev bool) (config CidashConfig, err error) {
	config = Default()
	if err = yaml.Unmarshal(yamlFile, &config); err != nil {
		return
	}

	if isDev {
		// Since it's in dev env, let's move some path to ./tmp
		cwd, _ := os.Getwd()
		tmpDir := cwd + "/tmp/"
		if _, err := os.Stat(tmpDir); os.IsNotExist(err) {
			os.Mkdir(tmpDir, 0755)
		}
		config.Storage.Workdir = strings.ReplaceAll(config.Storage.Workdir, "/var/lib/", tmpDir)
	}
	config.IsDev = isDev

	if config.API.RequestTimeout.Duration <= 0 {
		return config, errors.New("api.request_timeout must be positive")
	}
	if config.Dashboard.RefreshInterval.Duration <= 0 {
		return config, errors.New("dashboard.refresh_interval must be positive")
	}

	validate := validator.New()
	err = validate.Struct(config)
	return
}

// Save writes config as YAML to path.
func Save(path string, config CidashConfig) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
