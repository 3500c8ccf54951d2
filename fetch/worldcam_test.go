package fetch

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// testImage renders a small gradient so regions are not all identical.
func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func encodePng(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSliceFullRegionsOnly(t *testing.T) {
	t.Parallel()
	// 100x80 holds 3x2 full 32px tiles, the remainder is discarded
	regions := Slice(testImage(100, 80))
	require.Len(t, regions, 6)
	for _, region := range regions {
		assert.Len(t, region, RegionSize*RegionSize*3)
	}
}

func TestSliceTooSmallImage(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Slice(testImage(31, 31)))
}

func TestSliceOffsetBounds(t *testing.T) {
	t.Parallel()
	img := image.NewRGBA(image.Rect(10, 10, 74, 74))
	assert.Len(t, Slice(img), 4)
}

func TestImageUrlHeuristics(t *testing.T) {
	t.Parallel()
	page := `<html><body>
		<img src="https://cdn.example.com/webcam/123.jpg">
		<img data-src="/img/cam-456.jpg">
		<img src="https://cdn.example.com/logo.png">
		<img src="">
	</body></html>`
	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)

	w := &Worldcam{base: "https://worldcam.example/webcams/"}
	urls := w.imageUrls(doc)
	assert.Equal(t, []string{
		"https://cdn.example.com/webcam/123.jpg",
		"https://worldcam.example/webcams//img/cam-456.jpg",
	}, urls, "only cam-ish sources are kept, logo and empty src are not")
}

func TestCatalogMemoryRoundtrip(t *testing.T) {
	t.Parallel()
	c := OpenCatalog(":memory:")
	defer c.Close()

	_, _, ok := c.Get("europe")
	require.False(t, ok)

	c.Put("europe", []string{"https://a", "https://b"})
	urls, refreshed, ok := c.Get("europe")
	require.True(t, ok)
	assert.Equal(t, []string{"https://a", "https://b"}, urls)
	assert.WithinDuration(t, time.Now(), refreshed, time.Second)
}

func TestCatalogBoltRoundtrip(t *testing.T) {
	t.Parallel()
	path := t.TempDir() + "/catalog.db"

	c := OpenCatalog(path)
	c.Put("asia", []string{"https://cam.example/1.jpg"})
	require.NoError(t, c.Close())

	// reopen, entry must have survived
	c = OpenCatalog(path)
	defer c.Close()
	urls, _, ok := c.Get("asia")
	require.True(t, ok)
	assert.Equal(t, []string{"https://cam.example/1.jpg"}, urls)
}

func TestFetchImageRejectsNonImages(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>maintenance page</html>")
	}))
	defer srv.Close()

	w := NewWorldcam(OpenCatalog(""), time.Second)
	_, err := w.fetchImage(t.Context(), srv.URL)
	assert.ErrorContains(t, err, "unsupported media type")
}

func TestFetchEndToEnd(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	imgUrl := srv.URL + "/webcams/cam-europe.png"
	mux.HandleFunc("GET /webcams/europe", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><img src=%q></body></html>`, imgUrl)
	})
	mux.HandleFunc("GET /webcams/cam-europe.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(encodePng(t, testImage(96, 64)))
	})

	catalog := OpenCatalog("")
	w := NewWorldcam(catalog, time.Second)
	w.base = srv.URL + "/webcams/"

	regions, err := w.Fetch(t.Context(), "europe")
	require.NoError(t, err)
	assert.Len(t, regions, 6)

	// discovery result was cached for the next cycle
	urls, _, ok := catalog.Get("europe")
	require.True(t, ok)
	assert.Equal(t, []string{imgUrl}, urls)
}

func TestFetchFailsWithoutCameras(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>no cameras here</body></html>")
	}))
	defer srv.Close()

	w := NewWorldcam(OpenCatalog(""), time.Second)
	w.base = srv.URL + "/webcams/"

	_, err := w.Fetch(t.Context(), "europe")
	assert.Error(t, err)
}
