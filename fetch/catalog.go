package fetch

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var catalogBucket = []byte("catalog")

// catalogEntry is one zone's discovered camera URLs with a freshness stamp.
type catalogEntry struct {
	Urls      []string  `json:"urls"`
	Refreshed time.Time `json:"refreshed"`
}

// Catalog caches discovered camera URLs per zone, so refill cycles don't
// re-scrape the upstream index page every time. With a path it is backed by
// BoltDB and survives restarts; with ":memory:" it lives in a plain map.
type Catalog struct {
	db *bolt.DB // nil when memory-only

	mu  sync.Mutex
	mem map[string]catalogEntry
}

// OpenCatalog opens the catalog at the given path, or an in-memory one for
// an empty path or ":memory:". Failing to open the database file aborts; this
// only happens at startup.
func OpenCatalog(path string) *Catalog {
	c := &Catalog{mem: make(map[string]catalogEntry)}
	if path == "" || path == ":memory:" {
		return c
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		log.Fatalf("catalog: cannot open db: %s", err)
	}

	// ensure that the catalog bucket exists
	err = db.Update(func(tx *bolt.Tx) (err error) {
		_, err = tx.CreateBucketIfNotExists(catalogBucket)
		return
	})
	if err != nil {
		log.Fatalf("catalog: cannot create bucket: %s", err)
	}

	c.db = db
	return c
}

// Close the underlying database, if any.
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Put stores the discovered URLs for a zone, stamped now.
func (c *Catalog) Put(zone string, urls []string) {
	entry := catalogEntry{Urls: urls, Refreshed: time.Now()}

	if c.db == nil {
		c.mu.Lock()
		c.mem[zone] = entry
		c.mu.Unlock()
		return
	}

	buf, err := json.Marshal(entry)
	if err != nil {
		log.Printf("ERR: catalog: marshal failed for %q: %s", zone, err)
		return
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(catalogBucket).Put([]byte(zone), buf)
	})
	if err != nil {
		log.Printf("ERR: catalog: put failed for %q: %s", zone, err)
	}
}

// Get returns the cached URLs for a zone and when they were discovered.
func (c *Catalog) Get(zone string) ([]string, time.Time, bool) {
	if c.db == nil {
		c.mu.Lock()
		entry, ok := c.mem[zone]
		c.mu.Unlock()
		return entry.Urls, entry.Refreshed, ok
	}

	var entry catalogEntry
	found := false
	c.db.View(func(tx *bolt.Tx) error {
		buf := tx.Bucket(catalogBucket).Get([]byte(zone))
		if buf == nil {
			return nil
		}
		if err := json.Unmarshal(buf, &entry); err == nil {
			found = true
		}
		return nil
	})
	return entry.Urls, entry.Refreshed, found
}
