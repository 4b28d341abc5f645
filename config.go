package hyrcania

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	env "github.com/segmentio/go-env"
	"github.com/sirupsen/logrus"
)

// ConfigFileName is looked up in the project root
const ConfigFileName = "hyrcania.toml"

type Config struct {
	ProjectName  string   `toml:"project_name"`
	Runtime      string   `toml:"runtime"`
	ComposeFile  string   `toml:"compose_file"`
	Ports        []int    `toml:"ports"`
	RestartDelay Duration `toml:"restart_delay"`
	Directories  []string `toml:"directories"`

	Backup struct {
		Required []string `toml:"required"`
		Optional []string `toml:"optional"`
	} `toml:"backup"`

	Dropbox struct {
		Token  string `toml:"token"`
		Folder string `toml:"folder"`
	} `toml:"dropbox"`
}

// Duration is a time.Duration written as "5s" in TOML
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

// DefaultConfig returns the settings used when no hyrcania.toml exists
func DefaultConfig() *Config {
	cfg := &Config{
		ProjectName:  "hyrcania",
		Runtime:      "docker",
		ComposeFile:  "docker-compose.yml",
		Ports:        []int{8888, 8889},
		RestartDelay: Duration{5 * time.Second},
		Directories:  []string{"data", "output"},
	}
	cfg.Backup.Required = []string{"data"}
	cfg.Backup.Optional = []string{
		"output",
		"visu.ipynb",
		"pyproject.toml",
		"poetry.lock",
		"README.md",
		"Dockerfile",
		"docker-compose.yml",
		"run.sh",
	}
	cfg.Dropbox.Folder = "/hyrcania"
	return cfg
}

// ConfigPath is where the project's configuration file lives
func ConfigPath(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

// LoadConfig reads dir/hyrcania.toml on top of the defaults, then applies environment overrides.
// A missing file is not an error.
func LoadConfig(dir string) (cfg *Config, err error) {
	cfg = DefaultConfig()

	data, err := os.ReadFile(ConfigPath(dir))
	switch {
	case os.IsNotExist(err):
		logrus.WithField("Dir", dir).Debug("No config file, using defaults")
	case err != nil:
		return nil, errors.Wrap(err, "failed to read config")
	default:
		if err = toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", ConfigPath(dir))
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// getenv returns $key, or def when it is unset or empty
func getenv(key, def string) string {
	if v, err := env.Get(key); err == nil && v != "" {
		return v
	}
	return def
}

func (cfg *Config) applyEnv() {
	cfg.ProjectName = getenv("HYRCANIA_PROJECT_NAME", cfg.ProjectName)
	cfg.Runtime = getenv("HYRCANIA_RUNTIME", cfg.Runtime)
	cfg.ComposeFile = getenv("HYRCANIA_COMPOSE_FILE", cfg.ComposeFile)
	cfg.Dropbox.Token = getenv("HYRCANIA_DROPBOX_TOKEN", cfg.Dropbox.Token)
	cfg.Dropbox.Folder = getenv("HYRCANIA_DROPBOX_FOLDER", cfg.Dropbox.Folder)
}

// KnownPaths lists every path a backup carries, required ones first
func (cfg *Config) KnownPaths() []string {
	paths := make([]string, 0, len(cfg.Backup.Required)+len(cfg.Backup.Optional))
	paths = append(paths, cfg.Backup.Required...)
	return append(paths, cfg.Backup.Optional...)
}

// Write stores the configuration as dir/hyrcania.toml
func (cfg *Config) Write(dir string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	path := ConfigPath(dir)
	logrus.WithField("Path", path).Debug("Writing config")
	return os.WriteFile(path, data, 0644)
}
