package main

import (
	"errors"
	"fmt"

	"github.com/regime-vault/rv-api/cmd"

	"github.com/spf13/viper"
)

func configureViper() {
	// read config file
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/rv-api/")
	viper.AddConfigPath("$HOME/.config/rv-api")
	viper.AddConfigPath(".")

	err := viper.ReadInConfig()
	if err != nil {
		// the config file is optional; settings may come entirely from flags and env
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}
}

func main() {
	configureViper()
	cmd.Execute()
}
