package confloader

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "KINANCE_"

// EnvNestingSeparator separates nested keys in environment variable names.
const EnvNestingSeparator = "__"

// Source names the layer a configuration value came from.
type Source string

// Layers from lowest to highest priority.
const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// Loader merges configuration layers and remembers which layer set each
// key. Later layers override earlier ones key by key.
type Loader struct {
	k         *koanf.Koanf
	origins   map[string]Source
	envPrefix string
	filePath  string
	optional  bool
	overrides map[string]any
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOptionalFile makes a missing configuration file a no-op.
func WithOptionalFile() Option {
	return func(l *Loader) {
		l.optional = true
	}
}

// WithOverrides sets dotted-key values from command-line flags.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		origins:   make(map[string]Source),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies file, environment and overrides, in that order, and
// unmarshals into target. Fields already set in target act as defaults.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		err := l.LoadFile(l.filePath)
		if err != nil && !(l.optional && errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("load config file: %w", err)
		}
	}
	if err := l.LoadEnv(); err != nil {
		return err
	}
	if len(l.overrides) > 0 {
		if err := l.LoadMap(l.overrides); err != nil {
			return err
		}
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile merges a YAML file. An empty path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	return l.merge(SourceFile, file.Provider(path), yaml.Parser())
}

// LoadEnv merges prefixed environment variables. The nesting separator maps
// to a dot: KINANCE_API__BASE_URL sets api.base_url.
func (l *Loader) LoadEnv() error {
	transform := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		return strings.ReplaceAll(s, EnvNestingSeparator, ".")
	}
	return l.merge(SourceEnv, env.Provider(l.envPrefix, ".", transform), nil)
}

// LoadMap merges a map of dotted keys as flag values.
func (l *Loader) LoadMap(data map[string]any) error {
	return l.merge(SourceFlag, mapProvider(data), nil)
}

func (l *Loader) merge(src Source, p koanf.Provider, parser koanf.Parser) error {
	layer := koanf.New(".")
	if err := layer.Load(p, parser); err != nil {
		return fmt.Errorf("load %s: %w", src, err)
	}
	for _, key := range layer.Keys() {
		l.origins[key] = src
	}
	return l.k.Merge(layer)
}

// Unmarshal decodes the merged configuration using koanf struct tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Value returns the merged value of a dotted key.
func (l *Loader) Value(key string) any {
	return l.k.Get(key)
}

// Source reports which layer set key; SourceDefault when none did.
func (l *Loader) Source(key string) Source {
	if src, ok := l.origins[key]; ok {
		return src
	}
	return SourceDefault
}

// Keys lists the keys set by any layer, sorted.
func (l *Loader) Keys() []string {
	keys := make([]string, 0, len(l.origins))
	for k := range l.origins {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadDotEnv seeds the process environment from .env files. Variables that
// are already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
