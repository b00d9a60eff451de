package bitmap

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Layer identifies one of the composited images.
type Layer int

const (
	LayerPhoto Layer = iota
	LayerFrame
	numLayers
)

func (l Layer) String() string {
	switch l {
	case LayerPhoto:
		return "photo"
	case LayerFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// Loader fetches the raw bytes of a source.
type Loader func(ctx context.Context) ([]byte, error)

// Result is sent on the completion channel when a requested load finishes.
type Result struct {
	Layer      Layer
	Generation uint64
	Name       string
	Bitmap     *Bitmap
	Err        error
}

type slot struct {
	gen     uint64
	name    string
	bmp     *Bitmap
	pending bool
}

// Cache holds one decoded bitmap per layer. Loads run on their own goroutines
// and report back through Results; the owner applies them with Apply.
type Cache struct {
	log     logrus.FieldLogger
	results chan Result

	mu    sync.Mutex
	slots [numLayers]slot
}

// NewCache creates an empty cache.
func NewCache(log logrus.FieldLogger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{log: log, results: make(chan Result, 2*int(numLayers))}
}

// Results is the completion channel.
func (c *Cache) Results() <-chan Result { return c.results }

// Request starts loading name into layer and returns its generation. The
// previous bitmap for the layer is released immediately.
func (c *Cache) Request(ctx context.Context, layer Layer, name string, load Loader) uint64 {
	return c.RequestScoped(ctx, layer, name, load, nil)
}

// RequestScoped is Request for a load that owns ctx. release, when non-nil,
// runs once the result has been delivered or dropped, so it may cancel ctx.
func (c *Cache) RequestScoped(ctx context.Context, layer Layer, name string, load Loader, release func()) uint64 {
	c.mu.Lock()
	s := &c.slots[layer]
	s.gen++
	s.name = name
	s.bmp = nil
	s.pending = true
	gen := s.gen
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"layer": layer, "source": name, "generation": gen}).Debug("load requested")

	go func() {
		if release != nil {
			defer release()
		}
		r := Result{Layer: layer, Generation: gen, Name: name}
		data, err := load(ctx)
		if err == nil {
			r.Bitmap, r.Err = Decode(data)
		} else {
			r.Err = err
		}
		select {
		case c.results <- r:
		case <-ctx.Done():
		}
	}()
	return gen
}

// Apply stores a completed load. It reports whether the layer changed and a
// repaint is needed. Completions from superseded requests are discarded.
func (c *Cache) Apply(r Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.Layer < 0 || r.Layer >= numLayers {
		return false
	}
	s := &c.slots[r.Layer]
	fields := logrus.Fields{"layer": r.Layer, "source": r.Name, "generation": r.Generation}
	if r.Generation != s.gen {
		c.log.WithFields(fields).WithField("current", s.gen).Debug("discarding stale load")
		return false
	}
	s.pending = false
	if r.Err != nil {
		c.log.WithFields(fields).WithError(r.Err).Warn("image failed to load; layer left empty")
		return false
	}
	s.bmp = r.Bitmap
	c.log.WithFields(fields).WithField("size", r.Bitmap.Size()).Debug("image ready")
	return true
}

// Set stores bmp directly, superseding any in-flight load.
func (c *Cache) Set(layer Layer, name string, bmp *Bitmap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &c.slots[layer]
	s.gen++
	s.name = name
	s.bmp = bmp
	s.pending = false
}

// Clear empties layer and invalidates any in-flight load for it.
func (c *Cache) Clear(layer Layer) {
	c.Set(layer, "", nil)
}

// Bitmap returns the ready bitmap for layer, or nil.
func (c *Cache) Bitmap(layer Layer) *Bitmap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots[layer].bmp
}

// Name returns the source name last requested for layer.
func (c *Cache) Name(layer Layer) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots[layer].name
}

// Pending reports whether any layer is still waiting for a load.
func (c *Cache) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.slots {
		if s.pending {
			return true
		}
	}
	return false
}
