package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/admindata/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string             REST bind address (e.g., ":8080")
//	-g string             gRPC health bind address (empty disables)
//	-d string             PostgreSQL DSN
//	-s string             token signing secret
//	-t int                issued token validity, minutes
//	-l string             log level
//	-f string             log format (text, json)
//	-issue-token string   print a token for the subject and exit
//
// The function first filters os.Args to the flags it recognizes using
// flagx.FilterArgs.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-t", "-l", "-f", "-issue-token"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port of the gRPC health service")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidity.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.StringVar(&config.IssueToken, "issue-token", config.IssueToken, "print an access token for the subject and exit")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidity = time.Duration(*tokenValidity) * time.Minute
}
