package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/resourcekit/logger"
)

// FileSystem abstracts the file operations of the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem reads the real file system.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadEnv loads a .env file without overriding variables already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Files are the resolved config and env file paths. Empty means none.
type Files struct {
	ConfigFile string
	EnvFile    string
}

// Options holds loader dependencies and overrides.
type Options struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// EnvPrefix restricts environment binding to variables starting with
	// PREFIX_ and strips it. Empty binds every variable.
	EnvPrefix string
}

// Option configures Load.
type Option func(*Options)

// WithFileSystem replaces the file system, for tests.
func WithFileSystem(fs FileSystem) Option {
	return func(o *Options) { o.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) Option {
	return func(o *Options) { o.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) Option {
	return func(o *Options) { o.EnvFile = path }
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *Options) { o.EnvPrefix = strings.TrimSuffix(strings.ToUpper(prefix), "_") }
}

// Resolve returns the files Load would read for name.
func Resolve(name string, opts Options) Files {
	fs := opts.FileSystem
	if fs == nil {
		fs = OSFileSystem{}
	}
	files := Files{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(fs, configCandidates(name))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(fs, envCandidates(name))
	}
	return files
}

// Load reads the config file, then the .env file, then the environment
// into cfg. Later sources win. Missing files are not an error.
func Load(name string, cfg any, opts ...Option) error {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.FileSystem == nil {
		o.FileSystem = OSFileSystem{}
	}
	files := Resolve(name, o)

	v := viper.New()
	if files.ConfigFile != "" && o.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", files.ConfigFile, err)
		}
		logger.Debug("config file loaded", logger.Fields("file", files.ConfigFile))
	}

	if files.EnvFile != "" && o.FileSystem.Exists(files.EnvFile) {
		if err := o.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("env file not loaded", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}
	bindEnv(v, o.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal %s: %w", name, err)
	}
	return nil
}

func configCandidates(name string) []string {
	var out []string
	for _, dir := range []string{
		filepath.Join("cmd", name),
		filepath.Join("..", "cmd", name),
		filepath.Join("..", "..", "cmd", name),
		"config",
		filepath.Join("..", "config"),
		".",
	} {
		for _, file := range []string{"config.yml", "config.yaml"} {
			out = append(out, filepath.Join(dir, file))
		}
	}
	return out
}

func envCandidates(name string) []string {
	var out []string
	for _, file := range []string{".env." + name, ".env"} {
		for _, dir := range []string{filepath.Join("cmd", name), "config", ".", ".."} {
			out = append(out, filepath.Join(dir, file))
		}
	}
	return out
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// bindEnv sets every nesting of each variable's key, so CLIENT_BASE_URL
// reaches client.base_url as well as client.base.url.
func bindEnv(v *viper.Viper, prefix string, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if prefix != "" {
			rest, found := strings.CutPrefix(key, prefix+"_")
			if !found || rest == "" {
				continue
			}
			key = rest
		}
		for _, variant := range keyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// keyVariants splits an env key at every underscore position:
//
//	CLIENT_BASE_URL -> client_base_url, client.base_url, client.base.url, client_base.url
func keyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(lower)
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
		add(strings.Join(parts[:i], "_") + "." + strings.Join(parts[i:], "."))
	}
	return out
}
