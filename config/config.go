// Package config provides configuration loading for the plover service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvAPIKeys overrides Auth.APIKeys with a comma-separated list.
const EnvAPIKeys = "PLOVER_API_KEYS"

// Store kinds.
const (
	StoreLocal = "local"
	StoreS3    = "s3"
	StoreMinIO = "minio"
)

// Config represents the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Graph    GraphConfig    `yaml:"graph"`
	Ontology OntologyConfig `yaml:"ontology"`
	Subclass SubclassConfig `yaml:"subclass"`
	Query    QueryConfig    `yaml:"query"`
	Limits   LimitsConfig   `yaml:"limits"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// StoreConfig selects a blob store.
type StoreConfig struct {
	// Kind is one of "local", "s3" or "minio".
	Kind string `yaml:"kind"`
	// Root is the directory of a local store.
	Root     string `yaml:"root"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	// AccessKey and SecretKey are used by MinIO; S3 uses the default
	// AWS credential chain.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// GraphConfig configures the graph dump.
type GraphConfig struct {
	Store StoreConfig `yaml:"store"`
	// Files are blob names in Store, e.g. nodes.jsonl.gz and edges.jsonl.gz.
	Files []string `yaml:"files"`
	// TestMode prunes dangling records instead of failing the build.
	TestMode       bool     `yaml:"test_mode"`
	KeepProperties []string `yaml:"keep_properties"`
	ArrayDelimiter string   `yaml:"array_delimiter"`
	// Codec is "go-json" or "json".
	Codec string `yaml:"codec"`
	// Watch rebuilds when a local dump file changes.
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
	// Report, if set, names the blob in Store that receives the subclass
	// report of every build.
	Report string `yaml:"report"`
}

// OntologyConfig configures the predicate hierarchy. URL takes precedence
// over File, which names a blob in the graph store.
type OntologyConfig struct {
	URL     string        `yaml:"url"`
	File    string        `yaml:"file"`
	Timeout time.Duration `yaml:"timeout"`
}

// SubclassConfig configures subclass reasoning.
type SubclassConfig struct {
	MaxDescendants   int      `yaml:"max_descendants"`
	MaxDepth         int      `yaml:"max_depth"`
	ExcludedPrefixes []string `yaml:"excluded_prefixes"`
	Sources          []string `yaml:"sources"`
}

// QueryConfig configures query answering.
type QueryConfig struct {
	EdgeCutoff int `yaml:"edge_cutoff"`
}

// LimitsConfig configures admission control.
type LimitsConfig struct {
	MaxInFlight        int64   `yaml:"max_in_flight"`
	MaxQueued          int64   `yaml:"max_queued"`
	QueriesPerSec      float64 `yaml:"queries_per_sec"`
	IOLimitBytesPerSec int64   `yaml:"io_bytes_per_sec"`
}

// AuthConfig configures API keys for /rebuild.
type AuthConfig struct {
	APIKeys     []string `yaml:"api_keys"`
	APIKeysFile string   `yaml:"api_keys_file"`
	// DynamoDBTable looks keys up by hash instead.
	DynamoDBTable string `yaml:"dynamodb_table"`
	Region        string `yaml:"region"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":9990",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    16 << 20,
		},
		Graph: GraphConfig{
			Store:         StoreConfig{Kind: StoreLocal, Root: "."},
			Codec:         "go-json",
			WatchDebounce: 2 * time.Second,
		},
		Ontology: OntologyConfig{
			Timeout: 10 * time.Second,
		},
		Subclass: SubclassConfig{
			MaxDescendants:   5000,
			MaxDepth:         1000,
			ExcludedPrefixes: []string{"biolink:"},
		},
		Query: QueryConfig{
			EdgeCutoff: 1_000_000,
		},
		Limits: LimitsConfig{
			MaxInFlight: 64,
			MaxQueued:   256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if len(c.Graph.Files) == 0 {
		errs = append(errs, errors.New("graph.files is required"))
	}
	switch c.Graph.Store.Kind {
	case StoreLocal:
	case StoreS3, StoreMinIO:
		if c.Graph.Store.Bucket == "" {
			errs = append(errs, fmt.Errorf("graph.store.bucket is required for %s", c.Graph.Store.Kind))
		}
		if c.Graph.Store.Kind == StoreMinIO && c.Graph.Store.Endpoint == "" {
			errs = append(errs, errors.New("graph.store.endpoint is required for minio"))
		}
	default:
		errs = append(errs, fmt.Errorf("graph.store.kind %q is not one of local, s3, minio", c.Graph.Store.Kind))
	}
	if c.Graph.Codec != "go-json" && c.Graph.Codec != "json" {
		errs = append(errs, fmt.Errorf("graph.codec %q is not one of go-json, json", c.Graph.Codec))
	}
	if c.Graph.Watch && c.Graph.Store.Kind != StoreLocal {
		errs = append(errs, errors.New("graph.watch needs a local store"))
	}
	if c.Query.EdgeCutoff < 0 {
		errs = append(errs, errors.New("query.edge_cutoff must not be negative"))
	}
	if c.Limits.MaxInFlight < 0 || c.Limits.MaxQueued < 0 || c.Limits.QueriesPerSec < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
// and applies environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse is LoadFromFile for an in-memory document.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.ApplyEnv()
	return config, nil
}

// ApplyEnv applies environment overrides for secrets.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvAPIKeys); ok {
		c.Auth.APIKeys = nil
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.Auth.APIKeys = append(c.Auth.APIKeys, k)
			}
		}
	}
}
