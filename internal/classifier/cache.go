package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache keeps fitted models keyed by the hash of their corpus.
// A nil *Cache is valid and fits a new model on every call.
type Cache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

func NewCache(maxModels int64, ttl time.Duration) (*Cache, error) {
	if maxModels <= 0 {
		return nil, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxModels * 10,
		MaxCost:     maxModels,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// Model returns the cached model for corpus, fitting and storing it on a miss.
func (c *Cache) Model(corpus []Example) (*Model, error) {
	if c == nil {
		return Fit(corpus)
	}

	key := CorpusKey(corpus)
	if v, ok := c.c.Get(key); ok {
		if m, ok := v.(*Model); ok {
			return m, nil
		}
	}

	m, err := Fit(corpus)
	if err != nil {
		return nil, err
	}
	c.c.SetWithTTL(key, m, 1, c.ttl)
	return m, nil
}

// Wait blocks until pending writes are visible to Get.
func (c *Cache) Wait() {
	if c != nil {
		c.c.Wait()
	}
}

func (c *Cache) Close() {
	if c != nil {
		c.c.Close()
	}
}

func CorpusKey(corpus []Example) string {
	h := sha256.New()
	for _, ex := range corpus {
		h.Write([]byte(ex.Text))
		h.Write([]byte{0})
		h.Write([]byte(ex.Label))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
