package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/admindata/internal/flagx"
	"github.com/dmitrijs2005/admindata/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. Durations use timex.Duration, so both "1h" and
// integer nanoseconds are accepted. Missing keys leave Config untouched.
type JsonConfig struct {
	EndpointAddr   *string         `json:"endpoint_addr"`
	GRPCHealthAddr *string         `json:"grpc_health_addr"`
	DatabaseDSN    *string         `json:"database_dsn"`
	SecretKey      *string         `json:"secret_key"`
	TokenValidity  *timex.Duration `json:"token_validity"`
	LogLevel       *string         `json:"log_level"`
	LogFormat      *string         `json:"log_format"`
}

// parseJson loads configuration values from the JSON file given with -c or
// -config into config. Without either flag nothing is loaded. Panics if
// the file cannot be read or holds invalid JSON.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	for dst, v := range map[*string]*string{
		&config.EndpointAddr:   c.EndpointAddr,
		&config.GRPCHealthAddr: c.GRPCHealthAddr,
		&config.DatabaseDSN:    c.DatabaseDSN,
		&config.SecretKey:      c.SecretKey,
		&config.LogLevel:       c.LogLevel,
		&config.LogFormat:      c.LogFormat,
	} {
		if v != nil {
			*dst = *v
		}
	}
	if c.TokenValidity != nil {
		config.TokenValidity = c.TokenValidity.Duration
	}
}
