package codec

import (
	"sync"

	"github.com/gomsgpack/msgpack/ext"
	"github.com/gomsgpack/msgpack/internal/cache"
	"github.com/gomsgpack/msgpack/internal/options"
	"github.com/gomsgpack/msgpack/internal/pool"
)

// maxRecursionDepth is the §3/§4.5.f/§4.6 recursion bound, exact on both
// the encode and decode sides.
const maxRecursionDepth = 1000

// Context owns everything an encode or decode call needs that must not
// be a process-wide global: the extensions registry reference, the
// strict-keys flag, the decode-side caches, and the adaptive-size stats
// that seed the next call's buffer allocation (§9 DESIGN NOTES
// "module-level caches → owned-by-context").
type Context struct {
	Registry    *ext.Registry
	StrictKeys  bool
	StringCache *cache.StringCache
	IntCache    *cache.IntCache
	Stats       pool.AdaptiveStats

	// ChunkSize and Offset configure a filestream.FileStream's refill
	// buffer size and starting file offset (§4.8). They are fields of
	// Context rather than of FileStream itself so that WithChunkSize and
	// WithOffset can share the single root-level Option type with the
	// codec-only options above; Encode/Decode/Stream ignore both.
	ChunkSize int
	Offset    int64

	stringCacheSize int
}

// Option configures a Context at construction time.
type Option = options.Option[*Context]

// WithRegistry overrides the extensions registry used for this call
// (defaults to ext.Default()).
func WithRegistry(r *ext.Registry) Option {
	return options.NoError(func(c *Context) { c.Registry = r })
}

// WithStrictKeys turns on §4.5.g/§4.6's strict-keys mode: only Str keys
// are accepted or produced for maps.
func WithStrictKeys(strict bool) Option {
	return options.NoError(func(c *Context) { c.StrictKeys = strict })
}

// WithStringCacheSize overrides the string cache's slot count (§4.3
// default 1024).
func WithStringCacheSize(size int) Option {
	return options.NoError(func(c *Context) { c.stringCacheSize = size })
}

// WithChunkSize overrides a FileStream's refill buffer size (§4.8,
// default 16384). Ignored by Encode/Decode/Stream.
func WithChunkSize(size int) Option {
	return options.NoError(func(c *Context) { c.ChunkSize = size })
}

// WithOffset sets a FileStream's starting read offset into its file
// (§4.8's read_offset). Ignored by Encode/Decode/Stream.
func WithOffset(offset int64) Option {
	return options.NoError(func(c *Context) { c.Offset = offset })
}

// NewContext builds a Context with fresh caches, applying opts in order.
func NewContext(opts ...Option) (*Context, error) {
	c := &Context{
		Registry: ext.Default(),
		Stats:    pool.NewAdaptiveStats(),
	}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}
	c.StringCache = cache.NewStringCache(c.stringCacheSize)
	c.IntCache = cache.NewDefaultIntCache()
	return c, nil
}

// contextPool recycles one-shot Contexts so a goroutine calling the
// package-level Encode/Decode repeatedly tends to reuse warm
// AdaptiveStats and caches instead of rebuilding the integer cache on
// every call (§9 Open Question (d): the practical substitute for
// per-thread storage).
var contextPool = sync.Pool{
	New: func() any {
		return &Context{
			Registry: ext.Default(),
			Stats:    pool.NewAdaptiveStats(),
		}
	},
}

// AcquireContext draws a pooled Context, lazily building its caches if
// this is the pool slot's first use, then applies opts. Used by the
// root package's one-shot Encode/Decode so repeated calls on a
// goroutine tend to reuse warm AdaptiveStats and caches (§9 Open
// Question (d)). Pair every call with ReleaseContext.
func AcquireContext(opts ...Option) (*Context, error) {
	c, _ := contextPool.Get().(*Context)
	c.StrictKeys = false
	c.Registry = ext.Default()
	c.stringCacheSize = 0

	if err := options.Apply(c, opts...); err != nil {
		ReleaseContext(c)
		return nil, err
	}

	wantSize := c.stringCacheSize
	if wantSize <= 0 {
		wantSize = cache.DefaultStringCacheSize
	}
	if c.StringCache == nil || c.StringCache.Len() != wantSize {
		c.StringCache = cache.NewStringCache(c.stringCacheSize)
	}
	if c.IntCache == nil {
		c.IntCache = cache.NewDefaultIntCache()
	}
	return c, nil
}

// ReleaseContext returns c to the pool. Stats and caches are kept
// (intentionally not reset) so the next acquirer on this pool slot
// benefits from the warm averages and interned strings.
func ReleaseContext(c *Context) {
	contextPool.Put(c)
}
