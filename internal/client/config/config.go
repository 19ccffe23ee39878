package config

import "time"

// Probe kinds.
const (
	ProbeHTTP = "http"
	ProbeGRPC = "grpc"
	ProbeNone = "none"
)

// Config holds runtime settings for the admindata client.
//
// Units: OnlineCheckInterval, RequestTimeout and BridgeTTL are
// time.Duration values.
type Config struct {
	ServerURL           string
	AccessToken         string
	DatabaseDSN         string
	OnlineCheckInterval time.Duration
	ProbeKind           string
	GRPCHealthAddr      string
	RequestTimeout      time.Duration
	BridgeTTL           time.Duration
	CountriesURL        string
	S3Bucket            string
	S3Region            string
	S3BaseEndpoint      string
	S3AccessKey         string
	S3SecretKey         string
	LogLevel            string
	LogFormat           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080/api"
	c.DatabaseDSN = "file:admindata.db?_pragma=busy_timeout(5000)"
	c.OnlineCheckInterval = 3 * time.Second
	c.ProbeKind = ProbeHTTP
	c.GRPCHealthAddr = "127.0.0.1:50051"
	c.RequestTimeout = 15 * time.Second
	c.BridgeTTL = 24 * time.Hour
	c.CountriesURL = "https://restcountries.com/v3.1/all?fields=cca2,name,region,capital"
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
