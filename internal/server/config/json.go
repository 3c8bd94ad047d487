package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/folio/internal/flagx"
	"github.com/dmitrijs2005/folio/internal/timex"
)

// JsonConfig is the shape of the optional JSON config file. Durations use
// timex.Duration so both "15m"/"7d" strings and integer nanoseconds are
// accepted. Absent keys leave the current value untouched.
type JsonConfig struct {
	AppEnv                       *string         `json:"app_env"`
	Addr                         *string         `json:"addr"`
	SecretKey                    *string         `json:"secret_key"`
	RefreshSecretKey             *string         `json:"refresh_secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	StoreDriver                  *string         `json:"store_driver"`
	MongoURL                     *string         `json:"mongo_url"`
	MongoDBName                  *string         `json:"mongo_dbname"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	RedisAddr                    *string         `json:"redis_addr"`
	Cookie                       *CookieSettings `json:"cookie_settings"`
	AdminUserName                *string         `json:"auth_user_name"`
	AdminPassword                *string         `json:"auth_user_password"`
	MailSenderAddress            *string         `json:"mail_sender_address"`
	MailSenderPassword           *string         `json:"mail_sender_password"`
	SMTPHost                     *string         `json:"smtp_host"`
	SMTPPort                     *int            `json:"smtp_port"`
	ContactRecipient             *string         `json:"contact_recipient"`
	S3RootUser                   *string         `json:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
	LogBackend                   *string         `json:"log_backend"`
	LogFormat                    *string         `json:"log_format"`
	LogLevel                     *string         `json:"log_level"`
	RequestTimeout               *timex.Duration `json:"request_timeout"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// apply copies the keys present in the file onto config.
func (c *JsonConfig) apply(config *Config) {
	set(&config.AppEnv, c.AppEnv)
	set(&config.Addr, c.Addr)
	set(&config.SecretKey, c.SecretKey)
	set(&config.RefreshSecretKey, c.RefreshSecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	set(&config.StoreDriver, c.StoreDriver)
	set(&config.MongoURL, c.MongoURL)
	set(&config.MongoDBName, c.MongoDBName)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.Cookie, c.Cookie)
	set(&config.AdminUserName, c.AdminUserName)
	set(&config.AdminPassword, c.AdminPassword)
	set(&config.MailSenderAddress, c.MailSenderAddress)
	set(&config.MailSenderPassword, c.MailSenderPassword)
	set(&config.SMTPHost, c.SMTPHost)
	set(&config.SMTPPort, c.SMTPPort)
	set(&config.ContactRecipient, c.ContactRecipient)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.LogBackend, c.LogBackend)
	set(&config.LogFormat, c.LogFormat)
	set(&config.LogLevel, c.LogLevel)
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
}

// parseJson loads the file named by -c/-config into config. Without the
// flag nothing is loaded. An unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	c.apply(config)
}
