package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/leeforge/support/env_mode"
	"github.com/leeforge/support/logging"
	"go.uber.org/zap"
)

func DefaultConfigOptions() ConfigOptions {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}

	return ConfigOptions{
		BasePath: basePath,
		FileName: "config",
		FileType: "yaml",
		EnvFiles: []string{".env"},
	}
}

func DevConfigOptions() ConfigOptions {
	opts := DefaultConfigOptions()
	opts.WatchAble = true
	return opts
}

func NewConfig(optsArr ...ConfigOptions) (*Config, error) {
	opts := DefaultConfigOptions()
	if len(optsArr) > 0 {
		opts = optsArr[0]
	}

	instance, err := CreateConfig(opts)
	if err != nil {
		return nil, err
	}

	c := &Config{
		instance: instance,
		opts:     opts,
	}
	if opts.WatchAble {
		c.watch()
	}
	return c, nil
}

// FromMap builds a Config from an in-memory tree. It is mostly useful in
// tests and for embedding defaults.
func FromMap(tree map[string]any) *Config {
	v := viper.New()
	for k, val := range flatten("", tree) {
		v.Set(k, val)
	}
	return &Config{instance: v}
}

func (c *Config) Bind(instance any) error {
	if c == nil || c.instance == nil {
		return fmt.Errorf("config instance is nil")
	}
	if instance == nil {
		return fmt.Errorf("target instance is nil")
	}

	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	if err := c.instance.Unmarshal(instance); err != nil {
		return fmt.Errorf("failed to unmarshal config (path: %s, file: %s.%s): %w",
			c.opts.BasePath, c.opts.FileName, c.opts.FileType, err)
	}
	return nil
}

func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}
	if err := c.Bind(instance); err != nil {
		return err
	}
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("failed to set defaults after unmarshal: %w", err)
	}
	if v, ok := instance.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

func (c *Config) Get(key string) any {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	return c.instance.Get(key)
}

func (c *Config) Snapshot() (map[string]any, error) {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	return c.instance.AllSettings(), nil
}

// Resolver freezes the current settings into an immutable Resolver. viper
// lowercases keys, so paths must be lowercase.
func (c *Config) Resolver() *Resolver {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	return NewResolver(c.instance.AllSettings())
}

func (c *Config) watch() {
	c.watchOnce.Do(func() {
		c.instance.OnConfigChange(func(e fsnotify.Event) {
			fresh, err := CreateConfig(c.opts)
			if err != nil {
				logging.Named("config").Warn("reload failed", zap.String("file", e.Name), zap.Error(err))
				return
			}

			c.watchMutex.Lock()
			c.instance = fresh
			c.watchMutex.Unlock()

			if c.opts.OnChange != nil {
				c.opts.OnChange(c.Resolver())
			}
		})
		c.instance.WatchConfig()
	})
}

func CreateConfig(opts ConfigOptions) (*viper.Viper, error) {
	if len(opts.EnvFiles) > 0 {
		loadEnvFiles(opts.EnvFiles)
	}

	configPaths := getConfigFilePaths(opts)
	if opts.LoadAll {
		configPaths = getAllConfigFilePaths(opts)
	}
	if len(configPaths) == 0 {
		return nil, fmt.Errorf("no valid configuration files found in path: %s", opts.BasePath)
	}

	v := viper.New()
	v.SetConfigType(opts.FileType)

	for _, configPath := range configPaths {
		tempV := viper.New()
		tempV.SetConfigFile(configPath)
		if err := tempV.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}

		for _, key := range tempV.AllKeys() {
			v.Set(key, tempV.Get(key))
		}
	}
	// watch the base file
	v.SetConfigFile(configPaths[0])

	applyEnvOverrides(v, opts.EnvPrefix)

	return v, nil
}

// loadEnvFiles loads dotenv files that exist. Variables already present in
// the environment win.
func loadEnvFiles(files []string) {
	var present []string
	for _, f := range files {
		if fileExists(f) {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return
	}
	if err := godotenv.Load(present...); err != nil {
		logging.Named("config").Warn("dotenv load failed", zap.Strings("files", present), zap.Error(err))
	}
}

// applyEnvOverrides overrides every known key from the environment:
// database.host -> [PREFIX_]DATABASE_HOST.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")

	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = strings.ToUpper(envPrefix) + "_" + envKey
		}
		if envValue, ok := os.LookupEnv(envKey); ok && envValue != "" {
			v.Set(key, envValue)
		}
	}
}

func getConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	env := env_mode.Mode()
	fileNames := []string{
		opts.FileName,
		fmt.Sprintf("%s.local", opts.FileName),
	}
	for _, alias := range env.Aliases() {
		fileNames = append(fileNames,
			fmt.Sprintf("%s.%s", opts.FileName, alias),
			fmt.Sprintf("%s.%s.local", opts.FileName, alias),
		)
	}

	for _, fileName := range fileNames {
		file := filepath.Join(opts.BasePath, fmt.Sprintf("%s.%s", fileName, opts.FileType))
		if fileExists(file) {
			configFiles = append(configFiles, file)
		}
	}
	return configFiles
}

func getAllConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	baseNames := getConfigBaseNames(opts.BasePath, opts.FileType)
	if len(baseNames) == 0 {
		return nil
	}

	sort.Strings(baseNames)
	baseNames = moveFirst(baseNames, opts.FileName)
	seen := make(map[string]struct{}, len(baseNames))
	for _, baseName := range baseNames {
		tempOpts := opts
		tempOpts.FileName = baseName
		tempOpts.LoadAll = false
		for _, path := range getConfigFilePaths(tempOpts) {
			if _, exists := seen[path]; exists {
				continue
			}
			seen[path] = struct{}{}
			configFiles = append(configFiles, path)
		}
	}
	return configFiles
}

func getConfigBaseNames(basePath, fileType string) []string {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil
	}

	suffix := "." + fileType
	seen := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		base := stripConfigSuffix(strings.TrimSuffix(name, suffix))
		if base != "" {
			seen[base] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

func stripConfigSuffix(name string) string {
	name = strings.TrimSuffix(name, ".local")
	for _, mode := range []env_mode.ENV_MODE{env_mode.DevMode, env_mode.ProMode, env_mode.TestMode} {
		for _, alias := range mode.Aliases() {
			if strings.HasSuffix(name, "."+alias) {
				return strings.TrimSuffix(name, "."+alias)
			}
		}
	}
	return name
}

func moveFirst(names []string, first string) []string {
	idx := -1
	for i, name := range names {
		if name == first {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return names
	}

	out := make([]string, 0, len(names))
	out = append(out, first)
	out = append(out, names[:idx]...)
	out = append(out, names[idx+1:]...)
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// flatten turns a nested tree into dotted viper keys.
func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := cloneValue(v).(Tree); ok && len(nested) > 0 {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}
