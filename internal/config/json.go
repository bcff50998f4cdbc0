package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/sketchsync/internal/flagx"
	"github.com/dmitrijs2005/sketchsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	Endpoint        string `json:"endpoint"`
	Token           string `json:"token"`
	CollectionID    string `json:"collection_id"`
	CollectionName  string `json:"collection_name"`
	SketchDir       string `json:"sketch_dir"`
	DatabaseDSN     string `json:"database_dsn"`
	StoreBackend    string `json:"store_backend"`
	StorePassphrase string `json:"store_passphrase"`

	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	DebounceInterval  timex.Duration `json:"debounce_interval"`
	SuccessDisplay    timex.Duration `json:"success_display"`
	RequestTimeout    timex.Duration `json:"request_timeout"`
	ResourceTimeout   timex.Duration `json:"resource_timeout"`
	ReconcileInterval timex.Duration `json:"reconcile_interval"`

	ShortenerEndpoint string `json:"shortener_endpoint"`
	DeepLinkScheme    string `json:"deep_link_scheme"`
}

// parseJson overlays cfg with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only keys actually present in the file override their defaults: empty
// strings and non-positive durations are ignored, so a partial config file
// never wipes a default. Panics on read or unmarshal errors.
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

	setString(&cfg.Endpoint, jc.Endpoint)
	setString(&cfg.Token, jc.Token)
	setString(&cfg.CollectionID, jc.CollectionID)
	setString(&cfg.CollectionName, jc.CollectionName)
	setString(&cfg.SketchDir, jc.SketchDir)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.StoreBackend, jc.StoreBackend)
	setString(&cfg.StorePassphrase, jc.StorePassphrase)

	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)

	setDuration(&cfg.DebounceInterval, jc.DebounceInterval)
	setDuration(&cfg.SuccessDisplay, jc.SuccessDisplay)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.ResourceTimeout, jc.ResourceTimeout)
	setDuration(&cfg.ReconcileInterval, jc.ReconcileInterval)

	setString(&cfg.ShortenerEndpoint, jc.ShortenerEndpoint)
	setString(&cfg.DeepLinkScheme, jc.DeepLinkScheme)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = time.Duration(v.Duration)
	}
}
