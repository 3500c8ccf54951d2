// Package fetch implements the upstream image collaborator: it discovers
// public webcam URLs per zone from the worldcam directory, fetches one image
// at a time and slices it into fixed-size raw pixel regions for the buffers.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"
)

const (
	// RegionSize is the fixed edge length of one square region in pixels.
	RegionSize = 32

	// re-scrape a zone's index page when its catalog entry is older than this
	catalogMaxAge = time.Hour

	baseUrl   = "https://worldcam.eu/webcams/"
	userAgent = "Mozilla/5.0"

	// read at most this many bytes of a fetched image
	maxImageBytes = 8 << 20
)

// Worldcam fetches webcam images per zone. Zone names map directly to index
// pages of the upstream directory, e.g. "europe" or "north-america".
type Worldcam struct {
	client  *http.Client
	catalog *Catalog
	base    string
}

func NewWorldcam(catalog *Catalog, timeout time.Duration) *Worldcam {
	return &Worldcam{
		client:  &http.Client{Timeout: timeout},
		catalog: catalog,
		base:    baseUrl,
	}
}

// Fetch obtains one fresh image for the zone and returns its regions. It
// tries the catalogued camera URLs in random order and stops after the first
// image that downloads and decodes; stale or missing catalog entries trigger
// a re-discovery first.
func (w *Worldcam) Fetch(ctx context.Context, zone string) ([][]byte, error) {

	urls, refreshed, ok := w.catalog.Get(zone)
	if !ok || len(urls) == 0 || time.Since(refreshed) > catalogMaxAge {
		discovered, err := w.discover(ctx, zone)
		if err != nil && len(urls) == 0 {
			return nil, fmt.Errorf("discovery failed for %q: %w", zone, err)
		}
		if len(discovered) > 0 {
			w.catalog.Put(zone, discovered)
			urls = discovered
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no camera urls known for zone %q", zone)
	}

	shuffled := make([]string, len(urls))
	copy(shuffled, urls)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, url := range shuffled {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		img, err := w.fetchImage(ctx, url)
		if err != nil {
			log.Printf("[%s] skipping %.45s...: %s", zone, url, err)
			continue
		}
		return Slice(img), nil
	}

	return nil, fmt.Errorf("no image could be fetched for zone %q", zone)
}

// discover scrapes the zone's index page for camera image URLs.
func (w *Worldcam) discover(ctx context.Context, zone string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.base+zone, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index page returned %s", resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing index page failed: %w", err)
	}

	urls := w.imageUrls(doc)
	log.Printf("[%s] discovery: %d camera urls", zone, len(urls))
	return urls, nil
}

// imageUrls walks the parsed document and collects plausible camera image
// sources from <img> tags ("cam" in src or data-src).
func (w *Worldcam) imageUrls(doc *html.Node) (urls []string) {
	for node := range doc.Descendants() {
		if node.Type != html.ElementNode || node.Data != "img" {
			continue
		}
		for _, attr := range node.Attr {
			if attr.Key != "src" && attr.Key != "data-src" {
				continue
			}
			candidate := attr.Val
			if candidate == "" || !strings.Contains(strings.ToLower(candidate), "cam") {
				continue
			}
			switch {
			case strings.HasPrefix(candidate, "http"):
				urls = append(urls, candidate)
			case strings.HasPrefix(candidate, "/"):
				urls = append(urls, w.base+candidate)
			}
		}
	}
	return
}

// fetchImage downloads and decodes a single camera image.
func (w *Worldcam) fetchImage(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body failed: %w", err)
	}

	// sniff before decoding, error pages often come back as 200 text/html
	mt := mimetype.Detect(body)
	if !mt.Is("image/jpeg") && !mt.Is("image/png") {
		return nil, fmt.Errorf("unsupported media type %s", mt.String())
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decoding image failed: %w", err)
	}
	return img, nil
}

// Slice cuts an image into RegionSize x RegionSize tiles of raw RGB bytes
// (3 bytes per pixel) and shuffles their order. Partial tiles at the right
// and bottom edges are discarded.
func Slice(img image.Image) [][]byte {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	regions := make([][]byte, 0, (width/RegionSize)*(height/RegionSize))
	for y := bounds.Min.Y; y+RegionSize <= bounds.Min.Y+height; y += RegionSize {
		for x := bounds.Min.X; x+RegionSize <= bounds.Min.X+width; x += RegionSize {
			buf := make([]byte, 0, RegionSize*RegionSize*3)
			for dy := range RegionSize {
				for dx := range RegionSize {
					r, g, b, _ := img.At(x+dx, y+dy).RGBA()
					buf = append(buf, byte(r>>8), byte(g>>8), byte(b>>8))
				}
			}
			regions = append(regions, buf)
		}
	}

	rand.Shuffle(len(regions), func(i, j int) {
		regions[i], regions[j] = regions[j], regions[i]
	})
	return regions
}
