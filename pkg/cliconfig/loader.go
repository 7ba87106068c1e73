package cliconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory for global config
	GlobalConfigDir = "carshop"
)

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".carshoprc.yaml", ".carshoprc.yml"}

// GlobalConfigFileNames are the names to search for global config (in order).
var GlobalConfigFileNames = []string{"config.yaml", "config.yml"}

// FindLocalConfig searches for .carshoprc.yaml or .carshoprc.yml in the current directory.
func FindLocalConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return firstExisting(LocalConfigPaths(cwd)), nil
}

// LocalConfigPaths returns the paths searched for local config under dir.
func LocalConfigPaths(dir string) []string {
	paths := make([]string, len(LocalConfigFileNames))
	for i, name := range LocalConfigFileNames {
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}

// FindGlobalConfig returns the path to the global config file.
// Returns empty string if not found.
func FindGlobalConfig() (string, error) {
	return firstExisting(GlobalConfigPaths()), nil
}

// GlobalConfigPaths returns the paths that will be searched for global config.
func GlobalConfigPaths() []string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	paths := make([]string, len(GlobalConfigFileNames))
	for i, name := range GlobalConfigFileNames {
		paths[i] = filepath.Join(configDir, GlobalConfigDir, name)
	}
	return paths
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfigFile loads a CLIConfig from a YAML file. SetFields is filled with
// the top-level keys present in the file.
func LoadConfigFile(path string) (*CLIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, newConfigError(path, err)
	}

	var cfg CLIConfig
	if err := node.Decode(&cfg); err != nil {
		return nil, newConfigError(path, err)
	}

	cfg.Sources = make(map[string]string)
	cfg.SetFields = make(map[string]bool)
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
		mapping := node.Content[0].Content
		for i := 0; i+1 < len(mapping); i += 2 {
			cfg.SetFields[mapping[i].Value] = true
		}
	}
	return &cfg, nil
}

// ConfigError represents a configuration file error with location info.
type ConfigError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return e.Path + " (line " + strconv.Itoa(e.Line) + "): " + e.Message
	}
	return e.Path + ": " + e.Message
}

func newConfigError(path string, err error) *ConfigError {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		return &ConfigError{Path: path, Message: typeErr.Errors[0]}
	}
	return &ConfigError{Path: path, Message: err.Error()}
}

// Loader reads configuration from the usual places. Zero fields fall back
// to the process environment and working directory.
type Loader struct {
	// LocalDir is searched for a local config file. Defaults to the working
	// directory.
	LocalDir string
	// GlobalPath, when set, replaces the global config search.
	GlobalPath string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load loads configuration from all sources and merges them.
// Precedence: env > local config > global config > defaults. Flags are
// applied by the caller with MergeConfig(cfg, flags, SourceFlag).
func (l Loader) Load() (*CLIConfig, error) {
	cfg := NewDefault()

	globalPath := l.GlobalPath
	if globalPath == "" {
		globalPath, _ = FindGlobalConfig()
	}
	if globalPath != "" {
		globalCfg, err := LoadConfigFile(globalPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		MergeConfig(cfg, globalCfg, SourceGlobal)
	}

	var localPath string
	if l.LocalDir != "" {
		localPath = firstExisting(LocalConfigPaths(l.LocalDir))
	} else {
		localPath, _ = FindLocalConfig()
	}
	if localPath != "" {
		localCfg, err := LoadConfigFile(localPath)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, localCfg, SourceLocal)
	}

	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := LoadEnvConfig(cfg, getenv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAll loads configuration from the default locations.
func LoadAll() (*CLIConfig, error) {
	return Loader{}.Load()
}
