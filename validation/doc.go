// Package validation validates configuration structs and pipeline requests.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their config key (mapstructure tag):
//
//	type Config struct {
//	    SampleRate int `mapstructure:"sample_rate" validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects field errors:
//
//	err := validation.New().Required("path", req.Path).Min("speakers", req.Speakers, 0).Validate()
package validation
