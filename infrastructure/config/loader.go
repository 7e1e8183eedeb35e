// Package config loads engine configuration from YAML or JSON files and
// watches them for changes.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/duelist/domain/config"
)

// Format represents a configuration file format.
type Format string

const (
	// FormatYAML is the YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
)

// Loader loads engine configuration. Files only need to name the fields
// they override: parsing starts from the preset of the selected profile.
type Loader struct {
	// ExpandEnv enables environment variable expansion.
	ExpandEnv bool
	// StrictEnv fails if referenced env vars are missing.
	StrictEnv bool
	// Validate enables configuration validation.
	Validate bool
}

// NewLoader creates a loader with env expansion and validation enabled.
func NewLoader() *Loader {
	return &Loader{
		ExpandEnv: true,
		Validate:  true,
	}
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithEnvExpansion enables or disables environment variable expansion.
func WithEnvExpansion(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.ExpandEnv = enabled
	}
}

// WithStrictEnv enables strict environment variable checking.
func WithStrictEnv(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.StrictEnv = enabled
	}
}

// WithValidation enables or disables configuration validation.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.Validate = enabled
	}
}

// NewLoaderWithOptions creates a loader with the specified options.
func NewLoaderWithOptions(opts ...LoaderOption) *Loader {
	l := NewLoader()
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, ext)
	}
}

// LoadFile loads configuration from a file path.
func (l *Loader) LoadFile(path string) (*config.EngineConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", config.ErrInvalidFormat, path)
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return l.Load(f, format)
}

// Load loads configuration from a reader.
func (l *Loader) Load(r io.Reader, format Format) (*config.EngineConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if l.ExpandEnv {
		expanded, err := newEnvExpander(l.StrictEnv).Expand(string(data))
		if err != nil {
			return nil, err
		}
		data = []byte(expanded)
	}

	unmarshal, err := unmarshaler(format)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Profile config.Profile `json:"profile" yaml:"profile"`
	}
	if err := unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
	}
	cfg, err := config.ProfileConfig(probe.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, probe.Profile)
	}
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
	}

	if l.Validate {
		if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
			return nil, fmt.Errorf("%w: %v", config.ErrValidationFailed, errs)
		}
	}
	return cfg, nil
}

// LoadString loads configuration from a string.
func (l *Loader) LoadString(content string, format Format) (*config.EngineConfig, error) {
	return l.Load(strings.NewReader(content), format)
}

func unmarshaler(format Format) (func([]byte, any) error, error) {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal, nil
	case FormatJSON:
		return json.Unmarshal, nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
	}
}

// Encode writes cfg to w in the given format.
func Encode(w io.Writer, cfg *config.EngineConfig, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(cfg)
	case FormatJSON:
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Save writes cfg to path in the format implied by its extension.
func Save(path string, cfg *config.EngineConfig) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, cfg, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
