package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SURVEYBOOST_"

// PathEnvVar overrides the configuration file path.
const PathEnvVar = EnvPrefix + "CONFIG"

// DefaultPaths are searched in order when no path is given.
var DefaultPaths = []string{
	"surveyboost.yaml",
	"surveyboost.yml",
}

var sections = []string{"data", "model", "explain", "output", "logging"}

// flat aliases for the core options
var envAliases = map[string]string{
	"industry_path":    "data.industry_path",
	"demographic_path": "data.demographic_path",
	"response_topic":   "model.response_topic",
	"cv_folds":         "model.cv_folds",
	"search_budget":    "model.search_budget",
}

var sliceKeys = []string{"data.exclude_groups"}

// Load layers defaults, the YAML file at path (or the first of DefaultPaths
// that exists) and environment variables, then applies overrides and
// validates. overrides are koanf paths such as "model.cv_folds" and win
// over every other layer.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if isNotExist(err) {
				return nil, errors.NewIOError("load config", path, err)
			}
			return nil, errors.NewParseError(path, 0, "", err.Error())
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment variables")
	}

	for key, v := range overrides {
		if err := k.Set(key, v); err != nil {
			return nil, errors.Wrapf(err, "failed to set %s", key)
		}
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func isNotExist(err error) bool {
	var pe *os.PathError
	return errors.As(err, &pe) && os.IsNotExist(pe)
}

// envKey maps SURVEYBOOST_MODEL_CV_FOLDS to model.cv_folds and the flat
// aliases (SURVEYBOOST_CV_FOLDS) to their section. Unknown names are
// ignored.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if key == "config" {
		return ""
	}
	if path, ok := envAliases[key]; ok {
		return path
	}
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(key, s+"_"); ok && rest != "" {
			return s + "." + rest
		}
	}
	return ""
}

// splitSlices turns comma-separated strings from the environment into slices.
func splitSlices(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return errors.Wrapf(err, "failed to set %s", key)
		}
	}
	return nil
}
