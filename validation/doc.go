// Package validation checks configuration and command input.
//
// Struct tag validation uses go-playground/validator with field names taken
// from the json or mapstructure tag:
//
//	type Config struct {
//	    BaseURL string `mapstructure:"base_url" validate:"required,url"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic checks collect into the same error type:
//
//	err := validation.New().
//	    Required("url", url).
//	    OneOf("output", output, []string{"json", "yaml"}).
//	    Err()
package validation
