package app

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Generator produces the serialized feed document for a username. It may
// perform network I/O and take seconds to complete.
type Generator func(username string) (string, error)

// FeedCache maps usernames to assembled feed documents. A document becomes
// visible to readers only once fully assembled; concurrent first requests
// for the same username coalesce into a single generation.
type FeedCache struct {
	mu    sync.RWMutex
	docs  map[string]string
	group singleflight.Group
}

// NewFeedCache creates an empty cache.
func NewFeedCache() *FeedCache {
	return &FeedCache{docs: make(map[string]string)}
}

// Lookup returns the stored document for username, if any.
func (c *FeedCache) Lookup(username string) (string, bool) {
	c.mu.RLock()
	doc, ok := c.docs[username]
	c.mu.RUnlock()
	return doc, ok
}

// GetOrCreate returns the cached document for username, generating and
// storing it first when absent. Callers arriving while a generation for the
// same username is in flight share its result instead of querying upstream
// again. A failed generation stores nothing; the next caller retries.
func (c *FeedCache) GetOrCreate(username string, generate Generator) (string, error) {
	if doc, ok := c.Lookup(username); ok {
		return doc, nil
	}

	// No lock is held across the generator call, so lookups for other
	// usernames stay non-blocking while this one queries upstream.
	v, err, _ := c.group.Do(username, func() (interface{}, error) {
		// An earlier flight may have stored the document between our
		// lookup and joining the group.
		if doc, ok := c.Lookup(username); ok {
			return doc, nil
		}
		doc, err := generate(username)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.docs[username] = doc
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Clear atomically drops every entry.
func (c *FeedCache) Clear() {
	c.mu.Lock()
	c.docs = make(map[string]string)
	c.mu.Unlock()
}

// Size returns the current number of cached documents.
func (c *FeedCache) Size() int {
	c.mu.RLock()
	n := len(c.docs)
	c.mu.RUnlock()
	return n
}
