// Package config reads and writes .fitchat.yaml. Every key can be overridden
// with a FITCHAT_ environment variable ("server.addr" -> FITCHAT_SERVER_ADDR).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Pat-Reen/FitnessChat/pkg/ai"
	"github.com/Pat-Reen/FitnessChat/pkg/utils"
)

type Config struct {
	Agent      string       `mapstructure:"agent" yaml:"agent,omitempty"`
	MaxTokens  int          `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	Mode       string       `mapstructure:"mode" yaml:"mode,omitempty"`
	Catalog    string       `mapstructure:"catalog" yaml:"catalog,omitempty"`
	PromptsDir string       `mapstructure:"prompts_dir" yaml:"prompts_dir,omitempty"`
	Server     ServerConfig `mapstructure:"server" yaml:"server,omitempty"`
}

// ServerConfig is used by the serve command.
type ServerConfig struct {
	Addr   string `mapstructure:"addr" yaml:"addr,omitempty"`
	DB     string `mapstructure:"db" yaml:"db,omitempty"`
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// Keys lists every setting in display order.
var Keys = []string{
	"agent",
	"max_tokens",
	"mode",
	"catalog",
	"prompts_dir",
	"server.addr",
	"server.db",
	"server.api_key",
}

var defaults = map[string]any{
	"agent":          ai.DefaultAgent,
	"max_tokens":     2048,
	"mode":           "suggest",
	"catalog":        "",
	"prompts_dir":    "",
	"server.addr":    ":8080",
	"server.db":      "fitchat.db",
	"server.api_key": "",
}

var (
	configFile = ".fitchat.yaml"
	v          *viper.Viper
)

func init() {
	v = newViper()
}

func newViper() *viper.Viper {
	nv := viper.New()
	nv.SetConfigFile(configFile)
	nv.SetConfigType("yaml")

	for _, k := range Keys {
		nv.SetDefault(k, defaults[k])
	}

	nv.SetEnvPrefix("FITCHAT")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	// Try to read config file (ignore if not exists)
	_ = nv.ReadInConfig()
	return nv
}

func Path() string {
	return configFile
}

func Load() (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func isKey(key string) bool {
	_, ok := defaults[key]
	return ok
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(Keys, ", "))
}

func Get(key string) (string, error) {
	if !isKey(key) {
		return "", unknownKey(key)
	}
	return v.GetString(key), nil
}

// Set validates value, stores it in the config file and updates the running
// configuration.
func Set(key, value string) error {
	if !isKey(key) {
		return unknownKey(key)
	}
	typed, err := validate(key, value)
	if err != nil {
		return err
	}

	values, err := readFile()
	if err != nil {
		return err
	}
	setNested(values, key, typed)

	v.Set(key, typed) // keep viper in sync
	return writeConfig(values)
}

func validate(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "agent":
		if !ai.IsAgentSupported(value) {
			return nil, fmt.Errorf("unsupported agent %q (valid: %s)", value, strings.Join(ai.SupportedAgents(), ", "))
		}
	case "max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("max_tokens must be a positive integer, got %q", value)
		}
		return n, nil
	case "mode":
		value = strings.ToLower(value)
		if value != "suggest" && value != "groups" {
			return nil, fmt.Errorf("mode must be suggest or groups, got %q", value)
		}
	}
	return value, nil
}

// readFile returns only what the file holds, so defaults and environment
// overrides are never written back.
func readFile() (map[string]any, error) {
	values := map[string]any{}
	data, err := utils.ReadFile(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configFile, err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

func setNested(values map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	m := values
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

func writeConfig(values map[string]any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(values); err != nil {
		return err
	}
	return utils.WriteBytes(configFile, buf.Bytes())
}

// All returns every key with its effective value. The API key is masked.
func All() (map[string]string, error) {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		out[k] = v.GetString(k)
	}
	if out["server.api_key"] != "" {
		out["server.api_key"] = "********"
	}
	return out, nil
}

// ResetForTest resets viper for testing (only use in tests)
func ResetForTest(testPath string) {
	configFile = testPath + "/.fitchat.yaml"
	v = newViper()
}
