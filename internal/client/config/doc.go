// Package config loads runtime configuration for the admindata client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string             base URL of the REST backend
//	-k string             bearer access token
//	-d string             local store DSN (SQLite)
//	-i int                online status check interval (seconds)
//	-p string             connectivity probe: http, grpc or none
//	-g string             host:port of the gRPC health service
//	-t int                REST request timeout (seconds)
//	-b int                third-party payload cache TTL (minutes)
//	-u string             country reference API URL template
//	-l string             log level (debug, info, warn, error)
//	-f string             log format (text, json)
//	-s3-bucket string     bucket holding reference payloads
//	-s3-region string     S3 region
//	-s3-endpoint string   S3-compatible base endpoint
//	-s3-access-key string static S3 access key
//	-s3-secret-key string static S3 secret key
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080/api",
//	  "database_dsn": "file:admindata.db",
//	  "online_check_interval": "3s",
//	  "probe_kind": "http",
//	  "bridge_ttl": "24h"
//	}
//
// Keys missing from the file keep their default values.
package config
