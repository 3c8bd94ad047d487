package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/folio/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-s string   access token secret key
//	-k string   refresh token secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-x string   store driver (mongo, postgres, memory)
//	-m string   MongoDB URL
//	-n string   MongoDB database name
//	-d string   PostgreSQL DSN
//	-q string   Redis address
//	-b string   S3 bucket name
//	-l string   log level
//
// os.Args is first filtered to the flags listed above with
// flagx.FilterArgs. Duration flags only override the configured value when
// they are given.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-k", "-t", "-r", "-x", "-m", "-n", "-d", "-q", "-b", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "access token secret key")
	fs.StringVar(&config.RefreshSecretKey, "k", config.RefreshSecretKey, "refresh token secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.StoreDriver, "x", config.StoreDriver, "store driver: mongo, postgres or memory")
	fs.StringVar(&config.MongoURL, "m", config.MongoURL, "MongoDB URL")
	fs.StringVar(&config.MongoDBName, "n", config.MongoDBName, "MongoDB database name")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "q", config.RedisAddr, "Redis address")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
}
