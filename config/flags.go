package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CliConfig holds the serve flags that are not themselves config keys.
type CliConfig struct {
	ConfigFile string
}

// BindServeFlags registers the agent server flags on fs and binds the ones that
// override config keys to v.
func BindServeFlags(fs *pflag.FlagSet, v *viper.Viper) *CliConfig {
	args := &CliConfig{}
	fs.StringVar(&args.ConfigFile, "config", "", "Path to the config file")
	fs.String("host", "", "Host to run the app on (overrides listen_address)")
	fs.Int("port", 0, "Port to run the app on (overrides listen_address)")
	fs.String("log_level", "debug", "Logging level")

	_ = v.BindPFlag("host", fs.Lookup("host"))
	_ = v.BindPFlag("port", fs.Lookup("port"))
	_ = v.BindPFlag("log_level", fs.Lookup("log_level"))
	return args
}
