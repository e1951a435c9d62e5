package imaging

import (
	"fmt"
	"image"
	_ "image/gif" // imgio registers PNG, JPEG and BMP
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
)

// cacheEntry holds a decoded image and, once requested, its luminance frame.
type cacheEntry struct {
	img   image.Image
	frame *image.Gray
}

// ImageCache keeps decoded images and their 8-bit luminance frames in memory,
// keyed by the exact path string they were loaded from. Repeated tool calls on
// one file decode and convert it once.
//
// Entries live until Evict or Clear. ImageCache is safe for concurrent use.
//
//	cache := imaging.NewImageCache()
//	frame, err := cache.Frame("/path/to/scan.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{entries: make(map[string]*cacheEntry)}
}

func (c *ImageCache) lookup(path string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	if !ok {
		return cacheEntry{}, false
	}
	return *e, true
}

// Load returns the decoded image at path, reading it from disk on first use.
// PNG, JPEG, GIF and BMP files are supported.
func (c *ImageCache) Load(path string) (image.Image, error) {
	if e, ok := c.lookup(path); ok {
		return e.img, nil
	}

	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		// another goroutine won the race
		return e.img, nil
	}
	c.entries[path] = &cacheEntry{img: img}
	return img, nil
}

// Frame returns the 8-bit luminance frame of the image at path, loading and
// converting it on first use.
func (c *ImageCache) Frame(path string) (*image.Gray, error) {
	if e, ok := c.lookup(path); ok && e.frame != nil {
		return e.frame, nil
	}

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	frame := ToGray(img)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok {
		// evicted meanwhile
		e = &cacheEntry{img: img}
		c.entries[path] = e
	}
	if e.frame == nil {
		e.frame = frame
	}
	return e.frame, nil
}

// Clear drops every cached entry.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Evict drops the image and frame cached for path. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// FrameInfo contains metadata about a loaded image and its luminance frame.
type FrameInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", or "unknown".
	// Detection is based on file extension, not file contents.
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// MeanLuminance is the average 8-bit intensity of the frame.
	MeanLuminance float64 `json:"mean_luminance"`

	// MinLuminance and MaxLuminance bound the frame intensities.
	MinLuminance uint8 `json:"min_luminance"`
	MaxLuminance uint8 `json:"max_luminance"`
}

// LoadFrameInfo loads an image through cache and reports its dimensions,
// format and luminance range.
//
// The format is determined by file extension:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - Other extensions -> "unknown"
func LoadFrameInfo(cache *ImageCache, path string) (*FrameInfo, error) {
	frame, err := cache.Frame(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	bounds := frame.Bounds()
	info := &FrameInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		FileSizeBytes: stat.Size(),
	}

	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return info, nil
	}

	info.MinLuminance = 255
	var sum float64
	for y := 0; y < bounds.Dy(); y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+bounds.Dx()]
		for _, v := range row {
			sum += float64(v)
			info.MinLuminance = min(info.MinLuminance, v)
			info.MaxLuminance = max(info.MaxLuminance, v)
		}
	}
	info.MeanLuminance = sum / float64(pixels)

	return info, nil
}
