package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/pom-graph/pkg/repository"
)

// EnvPrefix is the prefix for environment overrides (e.g., POM_GRAPH_OUTPUT_PATH=deps.puml)
const EnvPrefix = "POM_GRAPH_"

// ConfigFlag names the flag that points at an explicit config file
const ConfigFlag = "config"

// DotEnvFile holds POM_GRAPH_ variables for local runs; real environment variables win
const DotEnvFile = ".env"

// DefaultFiles are tried in order when no config file is given explicitly.
// config.json keeps the {"pom_path": ..., "output_path": ...} format working.
var DefaultFiles = []string{"pom-graph.toml", "config.json"}

// Config holds all configuration for the application
type Config struct {
	POMPath    string `koanf:"pom_path"`
	OutputPath string `koanf:"output_path"`
	Repository string `koanf:"repository"`
	Diamond    string `koanf:"diamond"`
	Print      bool   `koanf:"print"`
	Watch      bool   `koanf:"watch"`
	Serve      bool   `koanf:"serve"`
	Port       int    `koanf:"port"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`

	// File is the config file that was loaded, if any
	File string `koanf:"-"`
}

// Load loads configuration from defaults, config file, .env, environment variables, and flags.
// Priority: Flags > Env > .env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"pom_path":    "",
		"output_path": "dependencies.puml",
		"repository":  "",
		"diamond":     "first-parent",
		"print":       true,
		"watch":       false,
		"serve":       false,
		"port":        8080,
		"verbosity":   "",
		"verbose":     0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File
	path, explicit := configFile(f)
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, errors.New("config file flag given without a path")
	}

	// 3. .env file (read without touching the process environment)
	if dotenv, err := godotenv.Read(DotEnvFile); err == nil {
		if err := k.Load(makeMapProvider(envKeys(dotenv)), nil); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", DotEnvFile, err)
	}

	// 4. Environment Variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags (dashes map onto the underscore keys)
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			if fl.Name == ConfigFlag {
				return "", nil
			}
			return strings.ReplaceAll(fl.Name, "-", "_"), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = path

	if cfg.Repository == "" {
		root, err := repository.DefaultRoot()
		if err != nil {
			return nil, err
		}
		cfg.Repository = root
	}
	cfg.POMPath = expandHome(cfg.POMPath)
	cfg.OutputPath = expandHome(cfg.OutputPath)
	cfg.Repository = expandHome(cfg.Repository)

	return &cfg, nil
}

// Validate checks the fields a run cannot do without
func (c *Config) Validate() error {
	if c.POMPath == "" {
		return errors.New("pom_path is required (flag --pom-path, env POM_GRAPH_POM_PATH or config file)")
	}
	if c.OutputPath == "" {
		return errors.New("output_path must not be empty")
	}
	if c.Serve && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// configFile returns the config file to load. explicit is true when the
// flag was set, in which case a missing file is an error.
func configFile(f *pflag.FlagSet) (path string, explicit bool) {
	if f != nil {
		if fl := f.Lookup(ConfigFlag); fl != nil && fl.Changed {
			return fl.Value.String(), true
		}
	}
	for _, candidate := range DefaultFiles {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, false
		}
	}
	return "", false
}

// envKey maps POM_GRAPH_OUTPUT_PATH onto output_path
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

func envKeys(vars map[string]string) map[string]interface{} {
	out := make(map[string]interface{})
	for name, value := range vars {
		if strings.HasPrefix(name, EnvPrefix) {
			out[envKey(name)] = value
		}
	}
	return out
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Parser()
	}
	return toml.Parser()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
