package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Overrides are the values given on the command line. Empty fields and
// nil pointers leave the lower layers alone.
type Overrides struct {
	ConfigFile  string
	ProjectDir  string
	Binary      string
	Workspace   string
	Store       string
	RunsDir     string
	SupportRoot string
	ModelsRoot  string
	LogLevel    string
	ChatTimeout *int
}

// Load resolves the configuration in precedence order: defaults, the YAML
// file, the environment, then o. The result is finalized and validated.
func Load(o Overrides) (Config, error) {
	cfg := Default(o.ProjectDir)

	file := o.ConfigFile
	if file == "" {
		candidate := filepath.Join(o.ProjectDir, DefaultFile)
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
		}
	}
	if file != "" {
		if err := cfg.LoadFile(file); err != nil {
			return Config{}, err
		}
		if o.ProjectDir != "" {
			cfg.ProjectDir = o.ProjectDir
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	home, _ := os.UserHomeDir()
	cfg.ResolveToken(os.LookupEnv, home)

	cfg.apply(o)
	if err := cfg.Finalize(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(o Overrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Binary, o.Binary)
	set(&c.Workspace, o.Workspace)
	set(&c.Store, o.Store)
	set(&c.RunsDir, o.RunsDir)
	set(&c.SupportRoot, o.SupportRoot)
	set(&c.ModelsRoot, o.ModelsRoot)
	set(&c.LogLevel, o.LogLevel)
	if o.ChatTimeout != nil {
		c.ChatTimeoutSeconds = max(*o.ChatTimeout, 0)
	}
}

// LoadDotEnv reads KEY=VALUE lines from path and sets any variables that
// aren't already set in the environment. Comments (#) and blanks are
// skipped; surrounding quotes are removed. A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, val)
		}
	}
	return scanner.Err()
}
