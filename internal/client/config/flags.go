package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/admindata/internal/flagx"
)

// Flags understood by parseFlags. Command positionals are whatever is left.
var Flags = []string{
	"-a", "-k", "-d", "-i", "-p", "-g", "-t", "-b", "-u", "-l", "-f",
	"-s3-bucket", "-s3-region", "-s3-endpoint", "-s3-access-key", "-s3-secret-key",
}

// parseFlags populates Config fields from command-line flags.
//
// Interval flags are given in whole seconds (-i, -t) or minutes (-b).
// os.Args is filtered with flagx.FilterArgs first so command arguments
// do not reach the flag set.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], Flags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the REST backend")
	fs.StringVar(&cfg.AccessToken, "k", cfg.AccessToken, "bearer access token")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local store DSN")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.ProbeKind, "p", cfg.ProbeKind, "connectivity probe (http, grpc, none)")
	fs.StringVar(&cfg.GRPCHealthAddr, "g", cfg.GRPCHealthAddr, "gRPC health service address")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	bridgeTTL := fs.Int("b", int(cfg.BridgeTTL.Minutes()), "third-party payload cache TTL (in minutes)")
	fs.StringVar(&cfg.CountriesURL, "u", cfg.CountriesURL, "country reference API URL")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (text, json)")

	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "S3 bucket with reference payloads")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "s3-endpoint", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "s3-access-key", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "s3-secret-key", cfg.S3SecretKey, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.BridgeTTL = time.Duration(*bridgeTTL) * time.Minute
}
