// Package config resolves harness settings once per run: built-in
// defaults, then an optional YAML file, then the environment, then CLI
// flags. Scenario code reads the resolved Config and never the
// environment directly.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/thinkuc/pkg/models"
	"github.com/ormasoftchile/thinkuc/pkg/runctx"
	"github.com/ormasoftchile/thinkuc/pkg/schema"
	"github.com/ormasoftchile/thinkuc/pkg/store"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvChatTimeout = "THINK_UC_CHAT_TIMEOUT_S"
	EnvHFToken     = "HF_TOKEN"
	// EnvTargetConfig is set for the child, never read.
	EnvTargetConfig = "THINK_CLI_CONFIG"
)

// DefaultFile is looked up in the project directory when --config is not
// given.
const DefaultFile = ".thinkuc.yaml"

// GatewayPorts are the loopback ports the gateway scenarios bind.
type GatewayPorts struct {
	Local  int `yaml:"local" json:"local" jsonschema:"minimum=1,maximum=65535"`
	Remote int `yaml:"remote" json:"remote" jsonschema:"minimum=1,maximum=65535"`
}

// Config is the resolved harness configuration.
type Config struct {
	ProjectDir         string             `yaml:"project_dir" json:"project_dir" jsonschema:"description=Directory holding the target checkout; relative paths resolve against it"`
	Binary             string             `yaml:"binary" json:"binary" jsonschema:"description=Target executable (default <project_dir>/.build/debug/think)"`
	Workspace          string             `yaml:"workspace" json:"workspace"`
	Store              string             `yaml:"store" json:"store" jsonschema:"minLength=1"`
	ConfigPath         string             `yaml:"config_path" json:"config_path" jsonschema:"description=Target config file exported as THINK_CLI_CONFIG"`
	RunsDir            string             `yaml:"runs_dir" json:"runs_dir"`
	SupportRoot        string             `yaml:"support_root" json:"support_root" jsonschema:"description=Directory holding the target's store files"`
	ModelsRoot         string             `yaml:"models_root" json:"models_root"`
	ChatTimeoutSeconds int                `yaml:"chat_timeout_seconds" json:"chat_timeout_seconds" jsonschema:"minimum=0"`
	LegacyZeroTimeout  bool               `yaml:"legacy_zero_timeout" json:"legacy_zero_timeout"`
	LanguageModels     []models.Candidate `yaml:"language_models" json:"language_models" jsonschema:"minItems=1"`
	DiffusionModels    []models.Candidate `yaml:"diffusion_models" json:"diffusion_models" jsonschema:"minItems=1"`
	GatewayPorts       GatewayPorts       `yaml:"gateway_ports" json:"gateway_ports"`
	GatewayToken       string             `yaml:"gateway_token" json:"gateway_token"`
	LogLevel           string             `yaml:"log_level" json:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	// HFToken is resolved from the environment or the token file and only
	// ever handed to the child process.
	HFToken         string `yaml:"-" json:"-"`
	hfTokenFromFile bool
}

// Default returns the built-in configuration for a checkout at projectDir.
// Path fields left empty are derived from ProjectDir by Finalize.
func Default(projectDir string) Config {
	return Config{
		ProjectDir:         projectDir,
		Store:              "codex-usecases",
		SupportRoot:        store.DefaultRoot(),
		ChatTimeoutSeconds: 1800,
		LanguageModels:     append([]models.Candidate(nil), models.LanguageCandidates...),
		DiffusionModels:    append([]models.Candidate(nil), models.DiffusionCandidates...),
		GatewayPorts:       GatewayPorts{Local: 9876, Remote: 9988},
		GatewayToken:       "test-token",
		LogLevel:           "info",
	}
}

// LoadFile overlays the YAML document at path onto c. Unknown keys are
// rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ApplyEnv overlays environment settings. lookup is os.LookupEnv in
// production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvChatTimeout); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not a whole number of seconds", EnvChatTimeout, v)
		}
		c.ChatTimeoutSeconds = max(n, 0)
	}
	return nil
}

// ResolveToken picks the Hugging Face token: HF_TOKEN when set, else the
// trimmed contents of <home>/.cache/huggingface/token.
func (c *Config) ResolveToken(lookup func(string) (string, bool), home string) {
	if v, ok := lookup(EnvHFToken); ok && v != "" {
		c.HFToken = v
		c.hfTokenFromFile = false
		return
	}
	data, err := os.ReadFile(filepath.Join(home, ".cache", "huggingface", "token"))
	if err != nil {
		return
	}
	if tok := strings.TrimSpace(string(data)); tok != "" {
		c.HFToken = tok
		c.hfTokenFromFile = true
	}
}

// Finalize derives unset paths from ProjectDir and makes every path
// absolute.
func (c *Config) Finalize() error {
	if c.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve project dir: %w", err)
		}
		c.ProjectDir = wd
	}
	pd, err := filepath.Abs(c.ProjectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}
	c.ProjectDir = pd

	defaults := []struct {
		field *string
		def   string
	}{
		{&c.Binary, filepath.Join(".build", "debug", "think")},
		{&c.Workspace, "."},
		{&c.ConfigPath, filepath.Join(".codex", "usecase-config.json")},
		{&c.RunsDir, filepath.Join(".codex", "usecase-runs")},
		{&c.SupportRoot, store.DefaultRoot()},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = d.def
		}
		*d.field = c.abs(*d.field)
	}
	if c.ModelsRoot == "" {
		c.ModelsRoot = filepath.Join(c.SupportRoot, "ThinkAI", "Models")
	}
	c.ModelsRoot = c.abs(c.ModelsRoot)
	return nil
}

func (c *Config) abs(p string) string {
	if strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.ProjectDir, p)
}

// ChatTimeout is the default bound for chat sends; zero means none.
func (c Config) ChatTimeout() time.Duration {
	return time.Duration(c.ChatTimeoutSeconds) * time.Second
}

// ChildEnv returns base with the target's config path, and the token when
// it came from the token file.
func (c Config) ChildEnv(base []string) []string {
	extra := map[string]string{EnvTargetConfig: c.ConfigPath}
	if c.hfTokenFromFile && c.HFToken != "" {
		extra[EnvHFToken] = c.HFToken
	}
	return runctx.MergeEnv(base, extra)
}

// SchemaDoc names the configuration schema.
var SchemaDoc = schema.Doc{
	Name:        "config-v1.json",
	Title:       "thinkuc configuration",
	Description: "Settings file for the thinkuc use-case harness (.thinkuc.yaml)",
}

// GenerateJSONSchema reflects the JSON Schema for Config.
func GenerateJSONSchema() ([]byte, error) {
	return schema.Generate(&Config{}, SchemaDoc)
}

// Validate checks c against the configuration schema.
func (c Config) Validate() error {
	data, err := GenerateJSONSchema()
	if err != nil {
		return err
	}
	v, err := schema.Compile(SchemaDoc.Name, data)
	if err != nil {
		return err
	}
	if errs := v.ValidateValue(c); len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n%s", schema.Join(errs))
	}
	return nil
}
