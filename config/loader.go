package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/gs2kit/logger"
)

// FileSystem abstracts the file operations of the loader (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver finds config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles finds config and env files for a service.
// Explicit paths in opts are returned as is.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(configSearchPaths(serviceName))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first(envSearchPaths(serviceName))
	}
	return resolved
}

func (r *Resolver) first(paths []string) string {
	for _, path := range paths {
		if r.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

func configSearchPaths(serviceName string) []string {
	return []string{
		fmt.Sprintf("./%s.yml", serviceName),
		fmt.Sprintf("./config/%s.yml", serviceName),
		fmt.Sprintf("../config/%s.yml", serviceName),
		"./config/config.yml",
		"./config.yml",
	}
}

func envSearchPaths(serviceName string) []string {
	var paths []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		for _, dir := range []string{".", "..", "./config"} {
			paths = append(paths, dir+"/"+name)
		}
	}
	return paths
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	EnvPrefix  string // Only variables with this prefix are read (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix restricts environment binding to PREFIX_* variables and strips
// the prefix from the key.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.TrimSuffix(strings.ToUpper(prefix), "_") }
}

// LoadConfig loads configuration for a service into cfg, which must be a
// pointer to a struct with mapstructure tags. Missing or unreadable files are
// logged and skipped.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	return loadFromResolvedFiles(serviceName, cfg, files, lc)
}

func loadFromResolvedFiles(serviceName string, cfg interface{}, files ResolvedFiles, lc LoaderConfig) error {
	log := logger.Get("gs2.config")
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			log.Warn("failed to load config file", logger.Fields("file", files.ConfigFile, logger.FieldError, err.Error()))
		}
	}

	// .env values land in the process environment; they never override
	// variables that are already set.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load env file", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}

	bindEnvVars(v, lc.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// bindEnvVars sets every key variant of each KEY=value pair on v. With a
// prefix, only PREFIX_* variables are used and the prefix is removed.
func bindEnvVars(v *viper.Viper, prefix string, environ []string) {
	for _, env := range environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok || key == "" {
			continue
		}
		if prefix != "" {
			stripped, found := strings.CutPrefix(key, prefix+"_")
			if !found || stripped == "" {
				continue
			}
			key = stripped
		}
		for _, variant := range generateEnvKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants lists the keys an environment variable may stand
// for, splitting at each underscore into a nested path.
//
//	CLIENT_ID      -> [client_id, client.id]
//	TLS_CA_FILE    -> [tls_ca_file, tls.ca.file, tls.ca_file, tls_ca.file]
func generateEnvKeyVariants(envKey string) []string {
	key := strings.ToLower(envKey)
	parts := strings.Split(key, "_")
	variants := []string{key}
	if len(parts) == 1 {
		return variants
	}

	variants = append(variants, strings.Join(parts, "."))
	// Nested section on the left, flat leaf on the right.
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	// Flat section on the left, nested leaf on the right.
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], "_")+"."+strings.Join(parts[i:], "."))
	}

	seen := make(map[string]struct{}, len(variants))
	return slices.DeleteFunc(variants, func(v string) bool {
		if _, dup := seen[v]; dup {
			return true
		}
		seen[v] = struct{}{}
		return false
	})
}
