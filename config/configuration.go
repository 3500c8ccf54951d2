package config

import "time"

// Prefix for envionment variable names, so HTTP_LISTEN becomes RNG_HTTP_LISTEN.
const envprefix = "RNG"

// Configuration via environment variables with github.com/kelseyhightower/envconfig.
type Configuration struct {

	// HTTP_LISTEN is the listening address for the HTTP server.
	HttpListen string `split_words:"true" default:"localhost:8080" desc:"Listening Addr for HTTP server"`

	// HTTP_CERT and HTTP_KEY are paths to a TLS keypair to optionally use for the HTTP server.
	// If none are given, a plaintext server is started. Reload keys with SIGHUP.
	HttpCert string `split_words:"true" desc:"Path to TLS certificate to use"`
	HttpKey  string `split_words:"true" desc:"Path to TLS key to use"`

	// ALLOWED_ORIGINS is a list of allowed Origin headers for websocket connections.
	AllowedOrigins []string `split_words:"true" desc:"List of allowed Origins for WebSocket"`

	// ZONES are the geographic zones to keep image-region buffers for. Each zone
	// maps to one webcam index page of the upstream camera directory.
	Zones []string `default:"europe,north-america,south-america,asia,australia-oceania" desc:"Zones to buffer image regions for"`

	// BUFFER_CAPACITY is the maximum number of 32x32 regions held per zone.
	BufferCapacity int `split_words:"true" default:"50" desc:"Region buffer capacity per zone"`

	// LOW_WATERMARK is the per-zone buffer length below which a refill cycle
	// actually fetches a new image; above it the cycle is a no-op.
	LowWatermark int `split_words:"true" default:"25" desc:"Buffer length that triggers a refill fetch"`

	// REFILL_INTERVAL is the tick between background refill checks per zone.
	RefillInterval time.Duration `split_words:"true" default:"10s" desc:"Interval between background refill checks"`

	// FETCH_TIMEOUT bounds a single upstream fetch (discovery page or image).
	FetchTimeout time.Duration `split_words:"true" default:"15s" desc:"Timeout for a single upstream fetch"`

	// FETCH_CONCURRENCY limits simultaneous upstream fetches across all zones.
	FetchConcurrency int `split_words:"true" default:"6" desc:"Max concurrent upstream fetches"`

	// CATALOG is a path to a persistent BoltDB database caching discovered
	// camera URLs per zone. An empty string or ":memory:" keeps the catalog
	// in memory only.
	Catalog string `default:":memory:" desc:"Use persistent BoltDB storage for the camera catalog"`

	// ROTATE_USES and ROTATE_AGE are the session secret rotation thresholds:
	// rotate after this many uses or this much elapsed time, whichever first.
	RotateUses int           `split_words:"true" default:"100" desc:"Secret rotation threshold in uses"`
	RotateAge  time.Duration `split_words:"true" default:"30s" desc:"Secret rotation threshold in age"`

	// PROBE_URLS are the endpoints round-robined by the network jitter source.
	ProbeUrls []string `split_words:"true" default:"https://www.google.com,https://www.cloudflare.com,https://www.amazon.com,https://www.microsoft.com,https://www.github.com" desc:"Probe URLs for network timing jitter"`

	// PROBE_TIMEOUT bounds a single network jitter probe.
	ProbeTimeout time.Duration `split_words:"true" default:"3s" desc:"Timeout for a single jitter probe"`

	// METRICS will expose metrics for Prometheus via /metrics
	Metrics bool `desc:"Enable Prometheus exporter on /metrics" default:"false"`

	// DEBUG will enable the pprof handlers under /debug/pprof
	Debug bool `desc:"Enable profiling handlers on /debug/pprof" default:"false"`
}
