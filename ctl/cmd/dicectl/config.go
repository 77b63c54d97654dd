package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Setting keys. Flags, config file entries and DICECTL_* variables share
// them, with dashes becoming underscores in the environment.
const (
	keyConfig   = "config"
	keyServer   = "server"
	keyAPIKey   = "api-key"
	keyHeader   = "header"
	keyCAFile   = "ca-file"
	keyInsecure = "insecure"
	keyTimeout  = "timeout"
	keyOutput   = "output"
	keyVerbose  = "verbose"
)

const (
	defaultServer = "http://localhost:4321"
	defaultHeader = "x-api-key"

	outputText = "text"
	outputJSON = "json"
)

// loadConfig layers the environment and an optional YAML file under the
// flags already bound to v. An explicit path must exist; the default
// ~/.dicectl.yaml is optional.
func loadConfig(v *viper.Viper, path string) error {
	v.SetEnvPrefix("DICECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.SetConfigName(".dicectl")
		v.SetConfigType("yaml")
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
