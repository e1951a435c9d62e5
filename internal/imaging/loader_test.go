package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a uniform PNG into a per-test directory and returns
// its path
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "test-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// cached reports whether path has a decoded image and a frame in cache
func cached(cache *ImageCache, path string) (hasImage, hasFrame bool) {
	e, ok := cache.lookup(path)
	return ok && e.img != nil, ok && e.frame != nil
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 60, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img1.Bounds(); b.Dx() != 100 || b.Dy() != 60 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x60", b.Dx(), b.Dy())
	}

	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if hasImage, hasFrame := cached(cache, imgPath); !hasImage || hasFrame {
		t.Errorf("Load should cache the image only: image %v, frame %v", hasImage, hasFrame)
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	for _, path := range []string{"/nonexistent/path/to/image.png", garbage} {
		if _, err := NewImageCache().Load(path); err == nil {
			t.Errorf("Load(%s) should fail", path)
		}
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	tests := []struct {
		name   string
		remove func(cache *ImageCache, path string)
	}{
		{"clear", func(cache *ImageCache, _ string) { cache.Clear() }},
		{"evict", func(cache *ImageCache, path string) { cache.Evict(path) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewImageCache()
			imgPath := createTestImage(t, 20, 20, color.RGBA{0, 255, 0, 255})
			if _, err := cache.Frame(imgPath); err != nil {
				t.Fatalf("Frame failed: %v", err)
			}

			tt.remove(cache, imgPath)

			if hasImage, hasFrame := cached(cache, imgPath); hasImage || hasFrame {
				t.Errorf("entry survived: image %v, frame %v", hasImage, hasFrame)
			}
		})
	}

	// unknown paths are ignored
	NewImageCache().Evict("/nonexistent/path")
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = cache.Load(imgPath)
			} else {
				_, err = cache.Frame(imgPath)
			}
			if err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent access error: %v", err)
	}
}

func TestImageCache_Frame(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 40, 30, color.RGBA{100, 100, 100, 255})

	frame1, err := cache.Frame(imgPath)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if frame1.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Errorf("bounds: got %v, want (0,0)-(40,30)", frame1.Bounds())
	}
	if v := At(frame1, 10, 10); v < 99 || v > 101 {
		t.Errorf("luminance: got %d, want about 100", v)
	}

	frame2, err := cache.Frame(imgPath)
	if err != nil {
		t.Fatalf("second Frame failed: %v", err)
	}
	if frame1 != frame2 {
		t.Error("second Frame did not return the cached frame")
	}

	cache.Evict(imgPath)
	if _, hasFrame := cached(cache, imgPath); hasFrame {
		t.Error("Evict did not remove the frame")
	}
}

func TestImageCache_Frame_NonExistent(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Frame("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Frame should fail for non-existent file")
	}
}

func TestLoadFrameInfo(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 200, 150, color.RGBA{255, 255, 255, 255})

	info, err := LoadFrameInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadFrameInfo failed: %v", err)
	}

	if info.Width != 200 {
		t.Errorf("Width: got %d, want 200", info.Width)
	}
	if info.Height != 150 {
		t.Errorf("Height: got %d, want 150", info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
	if info.MinLuminance != 255 || info.MaxLuminance != 255 || info.MeanLuminance != 255 {
		t.Errorf("luminance: got min %d max %d mean %f, want 255", info.MinLuminance, info.MaxLuminance, info.MeanLuminance)
	}
}

func TestLoadFrameInfo_LuminanceRange(t *testing.T) {
	cache := NewImageCache()

	img := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(img.Pix, []uint8{10, 20, 30, 40})

	imgPath := filepath.Join(t.TempDir(), "range.png")
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	f.Close()

	info, err := LoadFrameInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadFrameInfo failed: %v", err)
	}
	if info.MinLuminance != 10 || info.MaxLuminance != 40 {
		t.Errorf("range: got [%d, %d], want [10, 40]", info.MinLuminance, info.MaxLuminance)
	}
	if info.MeanLuminance != 25 {
		t.Errorf("mean: got %f, want 25", info.MeanLuminance)
	}
}

func TestLoadFrameInfo_FormatDetection(t *testing.T) {
	cache := NewImageCache()

	tests := []struct {
		ext    string
		format string
	}{
		{".png", "png"},
		{".PNG", "png"},
		{".jpg", "jpeg"},
		{".jpeg", "jpeg"},
		{".gif", "gif"},
		{".xyz", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			tmpPath := filepath.Join(t.TempDir(), "test-format"+tt.ext)

			// Create a valid PNG regardless of extension
			img := image.NewRGBA(image.Rect(0, 0, 10, 10))
			f, err := os.Create(tmpPath)
			if err != nil {
				t.Fatalf("failed to create file: %v", err)
			}
			png.Encode(f, img)
			f.Close()

			info, err := LoadFrameInfo(cache, tmpPath)
			if err != nil {
				t.Fatalf("LoadFrameInfo failed: %v", err)
			}

			if info.Format != tt.format {
				t.Errorf("Format for %s: got %s, want %s", tt.ext, info.Format, tt.format)
			}
		})
	}
}

func TestLoadFrameInfo_NonExistent(t *testing.T) {
	cache := NewImageCache()
	_, err := LoadFrameInfo(cache, "/nonexistent/image.png")
	if err == nil {
		t.Error("LoadFrameInfo should fail for non-existent file")
	}
}
