package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ojudge/identity/internal/flagx"
	"github.com/ojudge/identity/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into the
// runtime Config. Pointer fields distinguish "absent, keep current value"
// from explicit zero values.
type JsonConfig struct {
	EndpointAddr               *string         `json:"endpoint_addr"`
	DatabaseDSN                *string         `json:"database_dsn"`
	SecretKey                  *string         `json:"secret_key"`
	TokenValidityDuration      *timex.Duration `json:"token_validity_duration"`
	PasswordMinLength          *int            `json:"password_min_length"`
	PasswordMaxLength          *int            `json:"password_max_length"`
	BcryptCost                 *int            `json:"bcrypt_cost"`
	SignupRequiresConfirmation *bool           `json:"signup_requires_confirmation"`
	DefaultPageSize            *int            `json:"default_page_size"`
	S3RootUser                 *string         `json:"s3_root_user"`
	S3RootPassword             *string         `json:"s3_root_password"`
	S3Bucket                   *string         `json:"s3_bucket"`
	S3Region                   *string         `json:"s3_region"`
	S3BaseEndpoint             *string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != nil {
		config.EndpointAddr = *c.EndpointAddr
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	}
	if c.PasswordMinLength != nil {
		config.PasswordMinLength = *c.PasswordMinLength
	}
	if c.PasswordMaxLength != nil {
		config.PasswordMaxLength = *c.PasswordMaxLength
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.SignupRequiresConfirmation != nil {
		config.SignupRequiresConfirmation = *c.SignupRequiresConfirmation
	}
	if c.DefaultPageSize != nil {
		config.DefaultPageSize = *c.DefaultPageSize
	}
	if c.S3RootUser != nil {
		config.S3RootUser = *c.S3RootUser
	}
	if c.S3RootPassword != nil {
		config.S3RootPassword = *c.S3RootPassword
	}
	if c.S3Bucket != nil {
		config.S3Bucket = *c.S3Bucket
	}
	if c.S3Region != nil {
		config.S3Region = *c.S3Region
	}
	if c.S3BaseEndpoint != nil {
		config.S3BaseEndpoint = *c.S3BaseEndpoint
	}
}
