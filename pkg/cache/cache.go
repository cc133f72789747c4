// Package cache stores layout results and rendered artifacts.
//
// Backends implement [Cache]; [Open] picks one from a location string:
//
//	/path/to/dir, file:///path   FileCache (CLI default)
//	redis://host:6379/0          RedisCache
//	mongodb://host:27017/db      MongoCache
//	none                         NullCache, caching disabled
//
// Keys come from a [Keyer] so every component derives the same key for the
// same graph and options.
package cache

import (
	"context"
	"strings"
	"time"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
)

// Time-to-live per entry type.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value and whether it was found. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases connections held by the backend.
	Close() error
}

// Disabled is the location [Open] maps to a [NullCache].
const Disabled = "none"

// Clearer is implemented by backends that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Pruner is implemented by backends whose expired entries stay stored until
// they are removed explicitly.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// Open returns the backend selected by location. See the package
// documentation for the accepted forms.
func Open(ctx context.Context, location string) (Cache, error) {
	if location == Disabled {
		return NewNullCache(), nil
	}
	if err := lkerrors.ValidateCacheURL(location); err != nil {
		return nil, err
	}
	scheme, rest, found := strings.Cut(location, "://")
	if !found {
		return NewFileCache(location)
	}
	switch scheme {
	case "redis", "rediss":
		return NewRedisCache(ctx, location)
	case "mongodb", "mongodb+srv":
		return NewMongoCache(ctx, location)
	default: // file
		return NewFileCache(rest)
	}
}

// NullCache never stores anything; every Get is a miss.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache {
	return &NullCache{}
}

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

// =============================================================================
// Keys
// =============================================================================

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey identifies the layout of a graph under the given options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies a rendering of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs of a layout besides the graph.
type LayoutKeyOpts struct {
	Layering string
	// OptionsHash is the hash of every other option affecting the result.
	OptionsHash string
}

// ArtifactKeyOpts are the inputs of a rendering besides the layout.
type ArtifactKeyOpts struct {
	Format   string
	Scale    float64
	Detailed bool
}

// DefaultKeyer produces unscoped keys of the form "type:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts.Layering, opts.OptionsHash)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts.Format, opts.Scale, opts.Detailed)
}
