package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/authgate/internal/flagx"
)

var knownFlags = []string{
	"-a", "-grpc", "-d", "-s", "-t", "-r", "-i", "-google-client-id", "-country",
	"-cost", "-allow", "-l", "-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string                 HTTP bind address (e.g., ":8080")
//	-grpc string              gRPC bind address (e.g., ":50051")
//	-d string                 PostgreSQL DSN
//	-s string                 session token HMAC secret
//	-t int                    access token validity, minutes
//	-r int                    refresh token validity, minutes
//	-i string                 token issuer
//	-google-client-id string  Google OAuth client ID
//	-country string           default country code
//	-cost int                 bcrypt cost
//	-allow string             comma separated gate allow-list
//	-l string                 log level (debug, info, warn, error)
//	-u, -p, -b, -g, -e        S3 user, password, bucket, region, endpoint
//
// args are filtered with flagx.FilterArgs first so flags owned by other
// components do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("authgate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "gRPC address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.TokenIssuer, "i", config.TokenIssuer, "token issuer")
	fs.StringVar(&config.GoogleClientID, "google-client-id", config.GoogleClientID, "Google OAuth client ID")
	fs.StringVar(&config.DefaultCountryCode, "country", config.DefaultCountryCode, "default country code")
	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	allow := fs.String("allow", strings.Join(config.AllowList, ","), "gate allow-list patterns")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// only touch the durations when the flag was given, so sub-minute
	// values from earlier layers survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
		case "allow":
			config.AllowList = splitList(*allow)
		}
	})
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
