package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Export writes cfg to filename in the format given by its extension. Dotenv keys
// are prefixed with envPrefix so the file can be loaded back by a Loader using it.
func Export(cfg any, filename, envPrefix string) error {
	switch ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext {
	case "json":
		return ToJSONFile(cfg, filename)
	case "yaml", "yml":
		return ToYAMLFile(cfg, filename)
	case "env", "dotenv":
		return ToEnvFile(cfg, filename, envPrefix)
	default:
		return fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// ToJSONFile exports the given config struct into a JSON file.
func ToJSONFile(cfg any, filename string) error {
	mapData, err := toMap(cfg)
	if err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(mapData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal map to json: %w", err)
	}
	return writeFile(filename, jsonData)
}

// ToYAMLFile exports the given config struct into a YAML file.
func ToYAMLFile(cfg any, filename string) error {
	mapData, err := toMap(cfg)
	if err != nil {
		return err
	}

	yamlData, err := yaml.Marshal(mapData)
	if err != nil {
		return fmt.Errorf("failed to marshal map to yaml: %w", err)
	}
	return writeFile(filename, yamlData)
}

// ToEnvFile exports the given config struct into a dotenv file, one
// <PREFIX>_<SECTION>_<KEY>="value" line per leaf, sorted by key.
func ToEnvFile(cfg any, filename string, envPrefix string) error {
	mapData, err := toMap(cfg)
	if err != nil {
		return err
	}

	flat := make(map[string]string)
	flattenMap(strings.ToUpper(envPrefix), mapData, flat)

	lines := make([]string, 0, len(flat))
	for k, v := range flat {
		lines = append(lines, fmt.Sprintf(`%s="%s"`, k, v))
	}
	sort.Strings(lines)

	return writeFile(filename, []byte(strings.Join(lines, "\n")+"\n"))
}

// toMap decodes cfg into nested maps keyed by the mapstructure tags. Durations are
// rendered in their string form so every exported format reads back the same.
func toMap(cfg any) (map[string]any, error) {
	var mapData map[string]any
	if err := mapstructure.Decode(cfg, &mapData); err != nil {
		return nil, fmt.Errorf("failed to decode config to map: %w", err)
	}
	if len(mapData) == 0 {
		return nil, fmt.Errorf("config appears empty or unsupported, nothing to write")
	}

	stringifyDurations(mapData)
	return mapData, nil
}

func stringifyDurations(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case time.Duration:
			m[k] = val.String()
		case map[string]any:
			stringifyDurations(val)
		}
	}
}

func flattenMap(prefix string, input map[string]any, out map[string]string) {
	for k, v := range input {
		key := strings.ToUpper(k)
		if prefix != "" {
			key = prefix + "_" + key
		}

		switch val := v.(type) {
		case map[string]any:
			flattenMap(key, val, out)
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}

func writeFile(filename string, data []byte) error {
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", filename, err)
	}
	return nil
}
