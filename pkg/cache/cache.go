// Package cache stores arrangement results and rendered artifacts.
//
// Two cache levels exist:
//
//   - Layouts: vertex coordinates produced by the hierarchy engine, keyed by
//     the graph's content hash and the arrangement options.
//   - Artifacts: rendered output (SVG, DOT), keyed by the hash of the
//     arranged graph and the render options.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for the
// HTTP server and [NullCache] to disable caching. Keys are produced by a
// [Keyer] so that deployments can namespace them ([ScopedKeyer]).
package cache

import (
	"context"
	"time"
)

// Default time-to-live per cache level.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts holds the arrangement options that change the layout.
type LayoutKeyOpts struct {
	Roots        []string `json:"roots"`
	MaintainMean bool     `json:"maintain_mean"`
	BatchWeights bool     `json:"batch_weights"`
	// Engine lets a new engine version invalidate old entries.
	Engine string `json:"engine"`
}

// ArtifactKeyOpts holds the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Labels bool    `json:"labels"`
	Scale  float64 `json:"scale"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components into "layout:<sha256>" and
// "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns the key for a layout of the graph with hash graphHash.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey returns the key for an artifact rendered from layoutHash.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
