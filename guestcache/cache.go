package guestcache

import (
	"context"
	"sync"
	"time"

	"github.com/aufmass/go-aufmass/config"
	"github.com/aufmass/go-aufmass/database"
)

// Cache keeps recently served guest reads warm so a shared link opened by a
// whole crew does not hammer the store with identical queries.
func NewCache(appCtx context.Context) *Cache {
	c := &Cache{
		done:    make(chan struct{}),
		project: make(map[string]*item[*database.Project]),
		auth:    make(map[string]*item[database.ProjectAuth]),
	}
	go c.cleanupTask(appCtx)
	return c
}

func (c *Cache) Close() {
	close(c.done)
}

type Cache struct {
	done chan struct{}

	projectLock sync.RWMutex
	project     map[string]*item[*database.Project]
	authLock    sync.RWMutex
	auth        map[string]*item[database.ProjectAuth]
}

// Invalidate drops a project from the cache after a guest write so the next
// read reflects it immediately instead of after the TTL.
func (c *Cache) Invalidate(projectID string) {
	key := projectKey{ID: projectID}.String()
	c.projectLock.Lock()
	delete(c.project, key)
	c.projectLock.Unlock()
}

// InvalidateAuth drops a cached validation projection, used after the
// stored guest secret changes.
func (c *Cache) InvalidateAuth(projectID string) {
	key := authKey{ProjectID: projectID}.String()
	c.authLock.Lock()
	delete(c.auth, key)
	c.authLock.Unlock()
}

func (c *Cache) cleanupTask(appCtx context.Context) {
	ticker := time.NewTicker(config.CACHE_CLEANUP)
	for {
		select {
		case <-appCtx.Done():
			ticker.Stop()
			return
		case <-c.done:
			ticker.Stop()
			return
		case <-ticker.C:
			now := time.Now()

			// Cleanup project
			c.projectLock.Lock()
			for key, value := range c.project {
				if value.expiration.Before(now) {
					delete(c.project, key)
				}
			}
			c.projectLock.Unlock()

			// Cleanup auth
			c.authLock.Lock()
			for key, value := range c.auth {
				if value.expiration.Before(now) {
					delete(c.auth, key)
				}
			}
			c.authLock.Unlock()
		}
	}
}
