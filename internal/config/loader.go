package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Validator is implemented by every loadable configuration.
type Validator interface {
	Validate() error
}

// Source describes where a configuration is read from.
type Source struct {
	// File is the YAML file, skipped when missing.
	File string
	// EnvFile is the dotenv file, skipped when missing.
	EnvFile string
	// EnvPrefix selects the environment variables, e.g. CATALOG_.
	EnvPrefix string
	// Defaults is loaded first and has the lowest priority.
	Defaults map[string]any
}

// LoadFrom reads the configuration from defaults, a yaml file, a .env file and environment variables,
// in increasing priority, then validates it.
func LoadFrom[T Validator](src Source) (T, error) {
	var cfg T
	// Create a new Koanf instance
	k := koanf.New(".")

	// 0. Defaults
	if len(src.Defaults) > 0 {
		if err := k.Load(confmap.Provider(src.Defaults, "."), nil); err != nil {
			return cfg, fmt.Errorf("error loading defaults: %w", err)
		}
	}

	// 1. Load configuration from yaml file
	if src.File != "" {
		if err := k.Load(file.Provider(src.File), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				log.Printf("WARN: error loading YAML config file '%s': %v", src.File, err)
			}
		}
	}

	// 2. Load environment variables from .env file
	keyTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(src.EnvPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}
	if src.EnvFile != "" {
		if envFileMap, err := godotenv.Read(src.EnvFile); err == nil {
			envMap := make(map[string]any)
			for key, value := range envFileMap {
				if !strings.HasPrefix(strings.ToUpper(key), strings.ToUpper(src.EnvPrefix)) {
					continue
				}
				envMap[keyTransformer(key)] = value
			}
			// Load the envMap into Koanf
			if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
				log.Printf("WARN: error loading .env config: %v", err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: error reading .env file: %v", err)
		}
	}

	// 3. Load environment variables from the system, the highest priority
	if err := k.Load(env.Provider(src.EnvPrefix, ".", keyTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	// 4. Unmarshal the configuration into the Config struct
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// 5. Validate the configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
