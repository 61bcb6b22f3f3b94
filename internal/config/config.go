package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed identities.yaml
var identitiesYAML []byte

type Config struct {
	Nuxeo       NuxeoConfig
	Storage     StorageConfig
	Queue       QueueConfig
	Recognition RecognitionConfig
	Worker      WorkerConfig
	Identities  IdentityNames
}

type NuxeoConfig struct {
	URL      string
	Username string
	Password string
}

type StorageConfig struct {
	Bucket    string
	KeyPrefix string // binary keys are <prefix><content-digest>
	// Allowed mime types for the primary rendition. Anything else triggers
	// the FullHD rendition fallback.
	AllowedMimeTypes []string
}

// Allows reports whether the given mime type may be decoded directly.
func (c *StorageConfig) Allows(mimeType string) bool {
	for _, m := range c.AllowedMimeTypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

type QueueConfig struct {
	URL         string
	WaitSeconds int // long poll wait, 0-20
	MaxMessages int
}

type RecognitionConfig struct {
	CollectionID      string
	ProjectArn        string
	ProjectVersionArn string
	MatchThreshold    float64 // percent, candidates at/below are rejected
	StartTimeout      time.Duration
	PollInterval      time.Duration
}

type WorkerConfig struct {
	FaceConcurrency int           // parallel identity searches per image
	ItemTimeout     time.Duration // budget for one work item
}

// IdentityNames maps collection identity ids to human readable names.
type IdentityNames struct {
	Identities map[string]string `yaml:"identities"`
}

// Name returns the display name for an identity id, or the id itself
// when no mapping exists.
func (n *IdentityNames) Name(id string) string {
	if name, ok := n.Identities[id]; ok {
		return name
	}
	return id
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a duration
// (e.g. "30s", "5m").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envList reads a comma separated environment variable.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func Load() *Config {
	var names IdentityNames
	if err := yaml.Unmarshal(identitiesYAML, &names); err != nil {
		// Embedded file, should never happen in practice
		panic("failed to unmarshal embedded identities.yaml: " + err.Error())
	}

	return &Config{
		Nuxeo: NuxeoConfig{
			URL:      os.Getenv("NUXEO_URL"),
			Username: os.Getenv("NUXEO_USERNAME"),
			Password: os.Getenv("NUXEO_PASSWORD"),
		},
		Storage: StorageConfig{
			Bucket:           os.Getenv("FACETAG_BUCKET"),
			KeyPrefix:        os.Getenv("FACETAG_KEY_PREFIX"),
			AllowedMimeTypes: envList("FACETAG_ALLOWED_MIME_TYPES", []string{"image/jpeg", "image/png"}),
		},
		Queue: QueueConfig{
			URL:         os.Getenv("FACETAG_QUEUE_URL"),
			WaitSeconds: envInt("FACETAG_QUEUE_WAIT_SECONDS", 20),
			MaxMessages: envInt("FACETAG_QUEUE_MAX_MESSAGES", 10),
		},
		Recognition: RecognitionConfig{
			CollectionID:      os.Getenv("FACETAG_COLLECTION_ID"),
			ProjectArn:        os.Getenv("FACETAG_MODEL_PROJECT_ARN"),
			ProjectVersionArn: os.Getenv("FACETAG_MODEL_PROJECT_VERSION_ARN"),
			MatchThreshold:    envFloat("FACETAG_MATCH_THRESHOLD", 80),
			StartTimeout:      envDuration("FACETAG_MODEL_START_TIMEOUT", 15*time.Minute),
			PollInterval:      envDuration("FACETAG_MODEL_POLL_INTERVAL", 15*time.Second),
		},
		Worker: WorkerConfig{
			FaceConcurrency: envInt("FACETAG_FACE_CONCURRENCY", 4),
			ItemTimeout:     envDuration("FACETAG_ITEM_TIMEOUT", 2*time.Minute),
		},
		Identities: names,
	}
}
