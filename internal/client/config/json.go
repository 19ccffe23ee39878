package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/admindata/internal/flagx"
	"github.com/dmitrijs2005/admindata/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell a missing key apart from an empty value.
type JsonConfig struct {
	ServerURL           *string         `json:"server_url"`
	AccessToken         *string         `json:"access_token"`
	DatabaseDSN         *string         `json:"database_dsn"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	ProbeKind           *string         `json:"probe_kind"`
	GRPCHealthAddr      *string         `json:"grpc_health_addr"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	BridgeTTL           *timex.Duration `json:"bridge_ttl"`
	CountriesURL        *string         `json:"countries_url"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
	S3AccessKey         *string         `json:"s3_access_key"`
	S3SecretKey         *string         `json:"s3_secret_key"`
	LogLevel            *string         `json:"log_level"`
	LogFormat           *string         `json:"log_format"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag nothing is loaded. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.ProbeKind, jc.ProbeKind)
	setString(&cfg.GRPCHealthAddr, jc.GRPCHealthAddr)
	setString(&cfg.CountriesURL, jc.CountriesURL)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.BridgeTTL != nil {
		cfg.BridgeTTL = jc.BridgeTTL.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
