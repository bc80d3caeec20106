package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flexigpt/ordermerge-go/pdfformat"
	"github.com/flexigpt/ordermerge-go/spec"
)

// FileNames are the config files Load looks for, in order.
var FileNames = []string{"ordermerge.yml", "ordermerge.yaml"}

// Config holds settings loaded from ordermerge.yml.
type Config struct {
	LogLevel string        `yaml:"logLevel,omitempty"`
	Session  SessionConfig `yaml:"session,omitempty"`
	PDF      PDFConfig     `yaml:"pdf,omitempty"`
	Input    InputConfig   `yaml:"input,omitempty"`
	Output   string        `yaml:"output,omitempty"`
}

type SessionConfig struct {
	TTL             time.Duration        `yaml:"ttl,omitempty"`
	MaxSessions     int                  `yaml:"maxSessions,omitempty"`
	MaxDocuments    int                  `yaml:"maxDocuments,omitempty"`
	DuplicatePolicy spec.DuplicatePolicy `yaml:"duplicatePolicy,omitempty"`
}

type PDFConfig struct {
	Validation  pdfformat.ValidationMode `yaml:"validation,omitempty"`
	DividerPage bool                     `yaml:"dividerPage,omitempty"`
}

type InputConfig struct {
	MaxFileSize int64  `yaml:"maxFileSize,omitempty"`
	Collisions  string `yaml:"collisions,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Session: SessionConfig{
			DuplicatePolicy: spec.DuplicateLastWins,
		},
		PDF: PDFConfig{
			Validation: pdfformat.ValidationRelaxed,
		},
		Input: InputConfig{
			Collisions: "suffix",
		},
		Output: pdfformat.DefaultOutputName,
	}
}

// Load attempts to read ordermerge.yml or ordermerge.yaml from dir. Returns
// Default() (not an error) if no config file exists.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		cfg, err := LoadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile reads one config file. Fields it leaves unset keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Session.DuplicatePolicy != "" && !c.Session.DuplicatePolicy.Valid() {
		return fmt.Errorf("%w: session.duplicatePolicy %q", spec.ErrInvalidArgument, c.Session.DuplicatePolicy)
	}
	switch c.PDF.Validation {
	case "", pdfformat.ValidationRelaxed, pdfformat.ValidationStrict:
	default:
		return fmt.Errorf("%w: pdf.validation %q", spec.ErrInvalidArgument, c.PDF.Validation)
	}
	switch c.Input.Collisions {
	case "", "suffix", "fail":
	default:
		return fmt.Errorf("%w: input.collisions %q", spec.ErrInvalidArgument, c.Input.Collisions)
	}
	if c.Session.TTL < 0 || c.Session.MaxSessions < 0 || c.Session.MaxDocuments < 0 ||
		c.Input.MaxFileSize < 0 || c.Input.Concurrency < 0 {
		return fmt.Errorf("%w: limits must be >= 0", spec.ErrInvalidArgument)
	}
	return nil
}
