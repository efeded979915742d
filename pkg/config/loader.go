package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/gookit/slog"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFilePath = "config.yaml"
)

var SupportedExts = []string{"yaml", "yml", "json", "dotenv", "env"}

// Loader reads a configuration of type T from defaults, an optional file and the
// environment.
type Loader[T any] struct {
	cfg            T
	envPrefix      string
	configFilePath string
	configFileExt  string
	viper          *viper.Viper
}

func NewLoader[T any](defaults func() T, envPrefix string) *Loader[T] {
	return &Loader[T]{
		cfg:            defaults(),
		envPrefix:      envPrefix,
		configFilePath: DefaultConfigFilePath,
		configFileExt:  "yaml",
		viper:          viper.New(),
	}
}

func (l *Loader[T]) SetConfigFilePath(path string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if !slices.Contains(SupportedExts, ext) {
		return fmt.Errorf("unsupported config file extension: %s", ext)
	}

	l.configFilePath = path
	l.configFileExt = ext
	return nil
}

// Load loads the configuration from the environment and the config file.
// NOTE: The priority of the values is as follows:
// 1. Environment variables
// 2. Config file (supported types: "yaml", "yml", "json", "env", "dotenv")
// 3. Default values
//
// NOTE: The default config file is optional, an explicitly set one is not.
// NOTE: Keys of nested structs are joined with underscores in ENV variables, e.g.
// the field "oracle.retry_delay" is read from <ENVPREFIX>_ORACLE_RETRY_DELAY.
func (l *Loader[T]) Load() (T, error) {
	if err := l.setViperDefaults(); err != nil {
		return l.cfg, err
	}

	l.prepareViper()

	if err := l.loadFromFile(); err != nil {
		return l.cfg, err
	}

	if err := l.viperToCfg(); err != nil {
		return l.cfg, err
	}

	return l.cfg, nil
}

func (l *Loader[T]) setViperDefaults() error {
	defaultsMap := make(map[string]any)
	if err := mapstructure.Decode(l.cfg, &defaultsMap); err != nil {
		return fmt.Errorf("error occurred while setting defaults: %w", err)
	}

	for k, v := range defaultsMap {
		l.viper.SetDefault(k, v)
	}

	return nil
}

func (l *Loader[T]) prepareViper() {
	l.viper.SetEnvPrefix(l.envPrefix)
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()
}

func (l *Loader[T]) loadFromFile() error {
	if l.configFilePath == DefaultConfigFilePath {
		_, err := os.Stat(l.configFilePath)
		if os.IsNotExist(err) {
			slog.Debugf("[Config] %s not found, using defaults", l.configFilePath)
			return nil
		}
	}

	l.viper.SetConfigFile(l.configFilePath)
	if l.configFileExt == "dotenv" || l.configFileExt == "env" {
		l.viper.SetConfigType("env")
	}
	if err := l.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	if l.configFileExt == "dotenv" || l.configFileExt == "env" {
		// .env keys use underscores instead of dots, alias them to the nested keys.
		prefix := l.envPrefix
		if prefix != "" {
			prefix += "_"
		}
		for _, key := range l.viper.AllKeys() {
			l.viper.RegisterAlias(prefix+strings.ReplaceAll(key, ".", "_"), key)
		}
	}

	slog.Infof("[Config] loaded %s", l.configFilePath)
	return nil
}

func (l *Loader[T]) viperToCfg() error {
	if err := l.viper.Unmarshal(&l.cfg); err != nil {
		return fmt.Errorf("error while unmarshalling config from viper: %w", err)
	}
	return nil
}
