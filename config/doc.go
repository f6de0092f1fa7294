// Package config loads resourcekit application configuration.
//
// Load resolves a config.yml and a .env file, either from explicit paths
// or by searching the usual locations for the named application, then
// layers environment variables on top and unmarshals the result with
// Viper:
//
//	var cfg config.Config
//	if err := config.Load("resourcectl", &cfg, config.WithEnvPrefix("RESOURCECTL")); err != nil {
//		return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// With a prefix, RESOURCECTL_CLIENT_BASE_URL sets client.base_url.
package config
