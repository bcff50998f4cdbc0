// Package config handles configuration for the sync agent, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the sketchsync agent.
//
// Fields:
//   - Endpoint / Token: workspace API base URL and access token.
//   - CollectionID / CollectionName: target collection, by ID or by name
//     (ID wins when both are set).
//   - SketchDir: directory watched for sketch files.
//   - DatabaseDSN: sqlite file path for the local store.
//   - StoreBackend: "sqlite" or "s3".
//   - StorePassphrase: enables encryption at rest when non-empty.
//   - S3*: object storage settings for the s3 backend.
//   - DebounceInterval: quiet period after an edit before a sync run.
//   - SuccessDisplay: how long a Success status is shown before Idle.
//   - RequestTimeout / ResourceTimeout: per-request header timeout and
//     whole-transfer timeout for workspace calls.
//   - ReconcileInterval: period of the library reconciliation pass.
//   - ShortenerEndpoint: deep-link shortener URL, empty disables it.
//   - DeepLinkScheme: custom URI scheme written into the record link.
//   - RunOnce: reconcile, sync everything, then exit.
type Config struct {
	Endpoint        string
	Token           string
	CollectionID    string
	CollectionName  string
	SketchDir       string
	DatabaseDSN     string
	StoreBackend    string
	StorePassphrase string

	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string

	DebounceInterval  time.Duration
	SuccessDisplay    time.Duration
	RequestTimeout    time.Duration
	ResourceTimeout   time.Duration
	ReconcileInterval time.Duration

	ShortenerEndpoint string
	DeepLinkScheme    string

	RunOnce bool
}

// LoadDefaults populates Config with development defaults. Endpoint and
// Token stay empty on purpose: the agent refuses to start without them.
func (c *Config) LoadDefaults() {
	c.SketchDir = "./sketches"
	c.DatabaseDSN = "sketchsync.db"
	c.StoreBackend = "sqlite"

	c.S3Bucket = "sketchsync"
	c.S3Region = "us-east-1"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"

	c.DebounceInterval = 2 * time.Second
	c.SuccessDisplay = 2 * time.Second
	c.RequestTimeout = 15 * time.Second
	c.ResourceTimeout = 60 * time.Second
	c.ReconcileInterval = 5 * time.Minute

	c.DeepLinkScheme = "sketchsync"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
