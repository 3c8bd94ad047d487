package config

import (
	"os"

	"github.com/dmitrijs2005/folio/internal/timex"
	"github.com/kelseyhightower/envconfig"
)

// envConfig mirrors Config with environment variable names. Unset
// variables keep the value seeded from Config.
type envConfig struct {
	AppEnv                       string         `envconfig:"APP_ENV"`
	Addr                         string         `envconfig:"ADDR"`
	Port                         string         `envconfig:"PORT"`
	SecretKey                    string         `envconfig:"SECRET_KEY"`
	RefreshSecretKey             string         `envconfig:"REFRESH_SECRET_KEY"`
	AccessTokenValidityDuration  timex.Duration `envconfig:"AUTH_TOKEN_TIME"`
	RefreshTokenValidityDuration timex.Duration `envconfig:"REFRESH_TOKEN_TIME"`
	StoreDriver                  string         `envconfig:"STORE_DRIVER"`
	MongoURL                     string         `envconfig:"MONGO_URL"`
	MongoDBName                  string         `envconfig:"MONGO_DBNAME"`
	DatabaseDSN                  string         `envconfig:"DATABASE_DSN"`
	RedisAddr                    string         `envconfig:"REDIS_ADDR"`
	Cookie                       CookieSettings `envconfig:"COOKIE_SETTINGS"`
	AdminUserName                string         `envconfig:"AUTH_USER_NAME"`
	AdminPassword                string         `envconfig:"AUTH_USER_PASSWORD"`
	MailSenderAddress            string         `envconfig:"MAIL_SENDER_ADDRESS"`
	MailSenderPassword           string         `envconfig:"MAIL_SENDER_PASSWORD"`
	SMTPHost                     string         `envconfig:"SMTP_HOST"`
	SMTPPort                     int            `envconfig:"SMTP_PORT"`
	ContactRecipient             string         `envconfig:"CONTACT_RECIPIENT"`
	S3RootUser                   string         `envconfig:"S3_ROOT_USER"`
	S3RootPassword               string         `envconfig:"S3_ROOT_PASSWORD"`
	S3Bucket                     string         `envconfig:"S3_BUCKET"`
	S3Region                     string         `envconfig:"S3_REGION"`
	S3BaseEndpoint               string         `envconfig:"S3_BASE_ENDPOINT"`
	LogBackend                   string         `envconfig:"LOG_BACKEND"`
	LogFormat                    string         `envconfig:"LOG_FORMAT"`
	LogLevel                     string         `envconfig:"LOG_LEVEL"`
	RequestTimeout               timex.Duration `envconfig:"REQUEST_TIMEOUT"`
}

// parseEnv overlays environment variables onto config. PORT is honoured
// when ADDR is not given.
func parseEnv(config *Config) error {
	e := envConfig{
		AppEnv:                       config.AppEnv,
		Addr:                         config.Addr,
		SecretKey:                    config.SecretKey,
		RefreshSecretKey:             config.RefreshSecretKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: config.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: config.RefreshTokenValidityDuration},
		StoreDriver:                  config.StoreDriver,
		MongoURL:                     config.MongoURL,
		MongoDBName:                  config.MongoDBName,
		DatabaseDSN:                  config.DatabaseDSN,
		RedisAddr:                    config.RedisAddr,
		Cookie:                       config.Cookie,
		AdminUserName:                config.AdminUserName,
		AdminPassword:                config.AdminPassword,
		MailSenderAddress:            config.MailSenderAddress,
		MailSenderPassword:           config.MailSenderPassword,
		SMTPHost:                     config.SMTPHost,
		SMTPPort:                     config.SMTPPort,
		ContactRecipient:             config.ContactRecipient,
		S3RootUser:                   config.S3RootUser,
		S3RootPassword:               config.S3RootPassword,
		S3Bucket:                     config.S3Bucket,
		S3Region:                     config.S3Region,
		S3BaseEndpoint:               config.S3BaseEndpoint,
		LogBackend:                   config.LogBackend,
		LogFormat:                    config.LogFormat,
		LogLevel:                     config.LogLevel,
		RequestTimeout:               timex.Duration{Duration: config.RequestTimeout},
	}
	if err := envconfig.Process("", &e); err != nil {
		return err
	}

	config.AppEnv = e.AppEnv
	config.Addr = e.Addr
	if _, ok := os.LookupEnv("ADDR"); !ok && e.Port != "" {
		config.Addr = ":" + e.Port
	}
	config.SecretKey = e.SecretKey
	config.RefreshSecretKey = e.RefreshSecretKey
	config.AccessTokenValidityDuration = e.AccessTokenValidityDuration.Duration
	config.RefreshTokenValidityDuration = e.RefreshTokenValidityDuration.Duration
	config.StoreDriver = e.StoreDriver
	config.MongoURL = e.MongoURL
	config.MongoDBName = e.MongoDBName
	config.DatabaseDSN = e.DatabaseDSN
	config.RedisAddr = e.RedisAddr
	config.Cookie = e.Cookie
	config.AdminUserName = e.AdminUserName
	config.AdminPassword = e.AdminPassword
	config.MailSenderAddress = e.MailSenderAddress
	config.MailSenderPassword = e.MailSenderPassword
	config.SMTPHost = e.SMTPHost
	config.SMTPPort = e.SMTPPort
	config.ContactRecipient = e.ContactRecipient
	config.S3RootUser = e.S3RootUser
	config.S3RootPassword = e.S3RootPassword
	config.S3Bucket = e.S3Bucket
	config.S3Region = e.S3Region
	config.S3BaseEndpoint = e.S3BaseEndpoint
	config.LogBackend = e.LogBackend
	config.LogFormat = e.LogFormat
	config.LogLevel = e.LogLevel
	config.RequestTimeout = e.RequestTimeout.Duration
	return nil
}
