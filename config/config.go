package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/m4xw311/askai/errors"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Provider names understood by the llm package.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderBedrock   = "bedrock"
	ProviderMock      = "mock"
)

// AllowList confines what agent operations may touch.
type AllowList struct {
	AllowedDirectories []string `yaml:"allowed_directories"`
	// DisallowedCommands is a case-insensitive substring block-list.
	DisallowedCommands []string `yaml:"disallowed_commands"`
	// Hidden holds doublestar patterns for paths that are never readable or
	// writable, even inside an allowed directory.
	Hidden []string `yaml:"hidden"`
}

// Models names the two tiers for one provider.
type Models struct {
	Light    string `yaml:"light"`
	Powerful string `yaml:"powerful"`
}

type Routing struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"`
}

type Reasoning struct {
	Enabled    bool `yaml:"enabled"`
	Iterations int  `yaml:"iterations"`
	ShowSteps  bool `yaml:"show_steps"`
}

type Agent struct {
	// Enabled turns on extraction and confirmation of operations embedded in
	// model replies. When off, tokens stay in history and can only be run
	// through the "yes" shortcut.
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Provider           string            `yaml:"provider"`
	Providers          map[string]Models `yaml:"providers"`
	MaxContextMessages int               `yaml:"max_context_messages"`
	Routing            Routing           `yaml:"routing"`
	Reasoning          Reasoning         `yaml:"reasoning"`
	Agent              Agent             `yaml:"agent"`
	DocumentRoot       string            `yaml:"document_root"`
	WorkingDirectory   string            `yaml:"working_directory"`
	AllowList          AllowList         `yaml:"allowlist"`

	path string
}

// Default returns the built-in configuration every file is merged over.
func Default() *Config {
	docRoot := "Documents"
	if home, err := os.UserHomeDir(); err == nil {
		docRoot = filepath.Join(home, "Documents")
	}
	return &Config{
		Provider: ProviderOpenAI,
		Providers: map[string]Models{
			ProviderOpenAI:    {Light: "gpt-4o-mini", Powerful: "gpt-4o"},
			ProviderAnthropic: {Light: "claude-3-5-haiku-latest", Powerful: "claude-sonnet-4-0"},
			ProviderGemini:    {Light: "gemini-1.5-flash", Powerful: "gemini-1.5-pro"},
			ProviderBedrock:   {Light: "anthropic.claude-3-haiku-20240307-v1:0", Powerful: "anthropic.claude-3-5-sonnet-20240620-v1:0"},
			ProviderMock:      {Light: "mock-light", Powerful: "mock-powerful"},
		},
		MaxContextMessages: 10,
		Routing:            Routing{Enabled: true, Threshold: 0.7},
		Reasoning:          Reasoning{Enabled: false, Iterations: 3},
		Agent:              Agent{Enabled: true},
		DocumentRoot:       docRoot,
		AllowList: AllowList{
			AllowedDirectories: []string{docRoot},
			DisallowedCommands: []string{"rm -rf", "sudo", "mkfs", "dd if=", "shutdown", "reboot", ":(){"},
			Hidden:             []string{"**/.askai", "**/.askai/**"},
		},
	}
}

// LoadConfig loads configuration from the user's home directory and the current
// working directory, with the latter taking precedence. Both are merged over
// Default. Save writes back to the user-level file.
func LoadConfig() (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".askai", "config.yaml")
		cfg.path = userConfigPath
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".askai", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}
	if cfg.path == "" {
		cfg.path = projectConfigPath
	}

	cfg.normalize()
	return cfg, cfg.Validate()
}

// LoadConfigFrom loads a single file merged over Default. A missing file is
// not an error; it will be created on the first Save.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path
	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading config %s", path)
		}
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites only the keys present in the file; map entries
	// are merged key by key.
	return yaml.Unmarshal(data, cfg)
}

// Path returns the file Save writes to.
func (c *Config) Path() string { return c.path }

// Save writes the configuration to its file.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize config")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return errors.Wrapf(err, "could not create config directory")
	}
	return errors.Wrapf(os.WriteFile(c.path, data, 0644), "failed to write config %s", c.path)
}

// Models returns the tier models for the selected provider.
func (c *Config) Models() Models {
	return c.Providers[c.Provider]
}

// WorkDir is the directory shell commands run in.
func (c *Config) WorkDir() string {
	if c.WorkingDirectory != "" {
		return c.WorkingDirectory
	}
	return c.DocumentRoot
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if _, ok := c.Providers[c.Provider]; !ok {
		return errors.New("unknown provider '%s'", c.Provider)
	}
	if c.MaxContextMessages < 1 {
		return errors.New("max_context_messages must be at least 1, got %d", c.MaxContextMessages)
	}
	if c.Routing.Threshold < 0 || c.Routing.Threshold > 1 {
		return errors.New("routing.threshold must be between 0 and 1, got %g", c.Routing.Threshold)
	}
	if c.Reasoning.Iterations < 1 {
		return errors.New("reasoning.iterations must be at least 1, got %d", c.Reasoning.Iterations)
	}
	if c.DocumentRoot == "" {
		return errors.New("document_root must not be empty")
	}
	return nil
}

// Update applies dotted key=value settings such as "routing.threshold" or
// "allowlist.allowed_directories" (comma separated). The update is atomic:
// on any error the configuration is left untouched.
func (c *Config) Update(settings map[string]string) error {
	next := c.clone()

	input := map[string]any{}
	for key := range settings {
		parts := strings.Split(strings.TrimSpace(key), ".")
		if parts[0] == "providers" && len(parts) == 3 {
			seedProvider(input, next, parts[1])
		}
	}
	for key, value := range settings {
		key = strings.TrimSpace(key)
		next.resetList(key)
		setPath(input, strings.Split(key, "."), strings.TrimSpace(value))
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		Result:           next,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to build settings decoder")
	}
	if err := decoder.Decode(input); err != nil {
		return errors.Wrapf(err, "invalid settings")
	}
	next.normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	*c = *next
	return nil
}

// resetList clears the list named by key. The decoder overwrites existing
// slices element by element, so a shorter value would keep stale entries.
func (c *Config) resetList(key string) {
	switch key {
	case "allowlist.allowed_directories":
		c.AllowList.AllowedDirectories = nil
	case "allowlist.disallowed_commands":
		c.AllowList.DisallowedCommands = nil
	case "allowlist.hidden":
		c.AllowList.Hidden = nil
	}
}

// Settings flattens the configuration into the dotted keys Update accepts.
// Lists are joined with commas.
func (c *Config) Settings() map[string]string {
	out := map[string]string{}
	data, err := yaml.Marshal(c)
	if err != nil {
		return out
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return out
	}
	flatten("", tree, out)
	return out
}

func flatten(prefix string, v any, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprint(e)
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(t)
	}
}

// seedProvider copies the current tier models so a single-tier update keeps
// the other tier.
func seedProvider(input map[string]any, cfg *Config, name string) {
	current, ok := cfg.Providers[name]
	if !ok {
		return
	}
	setPath(input, []string{"providers", name, "light"}, current.Light)
	setPath(input, []string{"providers", name, "powerful"}, current.Powerful)
}

func setPath(m map[string]any, parts []string, value string) {
	for _, p := range parts[:len(parts)-1] {
		child, ok := m[p].(map[string]any)
		if !ok {
			child = map[string]any{}
			m[p] = child
		}
		m = child
	}
	m[parts[len(parts)-1]] = value
}

func (c *Config) clone() *Config {
	next := *c
	next.Providers = make(map[string]Models, len(c.Providers))
	for k, v := range c.Providers {
		next.Providers[k] = v
	}
	next.AllowList.AllowedDirectories = slices.Clone(c.AllowList.AllowedDirectories)
	next.AllowList.DisallowedCommands = slices.Clone(c.AllowList.DisallowedCommands)
	next.AllowList.Hidden = slices.Clone(c.AllowList.Hidden)
	return &next
}

// normalize expands "~" and trims empty list entries.
func (c *Config) normalize() {
	defaults := Default()
	for name, m := range c.Providers {
		d := defaults.Providers[name]
		if m.Light == "" {
			m.Light = d.Light
		}
		if m.Powerful == "" {
			m.Powerful = d.Powerful
		}
		c.Providers[name] = m
	}
	c.DocumentRoot = expandHome(c.DocumentRoot)
	c.WorkingDirectory = expandHome(c.WorkingDirectory)
	c.AllowList.AllowedDirectories = compact(c.AllowList.AllowedDirectories, expandHome)
	c.AllowList.DisallowedCommands = compact(c.AllowList.DisallowedCommands, nil)
	c.AllowList.Hidden = compact(c.AllowList.Hidden, nil)
}

func compact(values []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if transform != nil {
			v = transform(v)
		}
		out = append(out, v)
	}
	return out
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
