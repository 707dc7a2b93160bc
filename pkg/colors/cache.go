// Package colors hands out one Google Calendar color id per document, so
// every event synced from the same document shares a color.
package colors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// The Events API accepts color ids "1" through "11".
const paletteSize = 11

type state struct {
	ColorID  string    `json:"color_id"`
	LastUsed time.Time `json:"last_used"`
}

// Cache maps documents to color ids and persists the mapping between runs.
// Once all palette slots are claimed, the least recently used document
// loses its color to the next new one.
type Cache struct {
	path      string
	documents map[string]*state
	dirty     bool
}

// Open loads the cache at path, starting empty when no file exists yet.
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, documents: make(map[string]*state)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, errors.Wrapf(err, "opening color cache %s", path)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&c.documents); err != nil {
		return nil, errors.Wrapf(err, "decoding color cache %s", path)
	}
	return c, nil
}

// ColorID returns the document's color id, assigning one on first sight.
func (c *Cache) ColorID(document string) string {
	if s, ok := c.documents[document]; ok {
		s.LastUsed = time.Now()
		c.dirty = true
		return s.ColorID
	}
	return c.assign(document)
}

func (c *Cache) assign(document string) string {
	used := make(map[string]bool, len(c.documents))
	for _, s := range c.documents {
		used[s.ColorID] = true
	}
	for i := 1; i <= paletteSize; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			c.claim(document, id)
			return id
		}
	}

	// Palette exhausted: recycle the color of the document synced longest
	// ago.
	var oldest string
	for doc, s := range c.documents {
		if oldest == "" || s.LastUsed.Before(c.documents[oldest].LastUsed) {
			oldest = doc
		}
	}
	id := c.documents[oldest].ColorID
	delete(c.documents, oldest)
	c.claim(document, id)
	return id
}

func (c *Cache) claim(document, id string) {
	c.documents[document] = &state{ColorID: id, LastUsed: time.Now()}
	c.dirty = true
}

// Save writes the cache back if anything changed since it was opened.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return errors.Wrap(err, "creating color cache directory")
	}
	f, err := os.Create(c.path)
	if err != nil {
		return errors.Wrapf(err, "creating color cache %s", c.path)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(c.documents); err != nil {
		return errors.Wrap(err, "encoding color cache")
	}
	c.dirty = false
	return nil
}
