package template

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache keeps environments by a key the caller controls, for example
// whether an owning workflow is present. Concurrent builds of the same key
// are collapsed into one.
type Cache struct {
	mu    sync.RWMutex
	envs  map[string]*Environment
	group singleflight.Group
}

// NewCache creates an empty environment cache
func NewCache() *Cache {
	return &Cache{envs: make(map[string]*Environment)}
}

// Get returns the environment stored under key, calling build to create it
// on first use. A failed build is not cached.
func (c *Cache) Get(key string, build func() (*Environment, error)) (*Environment, error) {
	c.mu.RLock()
	env, ok := c.envs[key]
	c.mu.RUnlock()
	if ok {
		return env, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		env, ok := c.envs[key]
		c.mu.RUnlock()
		if ok {
			return env, nil
		}

		env, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to build environment %q: %w", key, err)
		}

		c.mu.Lock()
		c.envs[key] = env
		c.mu.Unlock()
		return env, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Environment), nil
}

// Len returns the number of cached environments
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.envs)
}

// Purge drops every cached environment
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envs = make(map[string]*Environment)
}
