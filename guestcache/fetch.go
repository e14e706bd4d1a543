package guestcache

import (
	"errors"
	"time"

	"github.com/aufmass/go-aufmass/config"
	"github.com/aufmass/go-aufmass/database"
	"golang.org/x/sync/singleflight"
)

var (
	projectSingleflight singleflight.Group
	authSingleflight    singleflight.Group
)

// FetchProject returns the cached project or runs fetch once for all
// concurrent callers asking for the same id.
func (c *Cache) FetchProject(id string, fetch func() (*database.Project, error)) (value *database.Project, err error) {
	key := projectKey{ID: id}.String()

	// singleflight fetch
	valueAny, err, _ := projectSingleflight.Do(key, func() (any, error) {
		// retrieve cache item
		c.projectLock.RLock()
		cacheValue, ok := c.project[key]
		c.projectLock.RUnlock()

		// return cache value if valid
		if ok && cacheValue.expiration.After(time.Now()) {
			return cacheValue.value, nil
		}

		// fetch new result
		value, err := fetch()
		if err != nil {
			return value, err
		}

		// save new result
		c.projectLock.Lock()
		c.project[key] = &item[*database.Project]{
			expiration: time.Now().Add(config.CACHE_DURATION),
			value:      value,
		}
		c.projectLock.Unlock()

		// return new result
		return value, err
	})
	if err != nil {
		return value, err
	}
	value, ok := valueAny.(*database.Project)
	if !ok {
		return value, errors.New("failed to cast singleflight response value to type")
	}
	return value, err
}

// FetchAuth returns the guest-validation projection of a project, cached so
// repeated link opens share one lookup.
func (c *Cache) FetchAuth(projectID string, fetch func() (database.ProjectAuth, error)) (value database.ProjectAuth, err error) {
	key := authKey{ProjectID: projectID}.String()

	// singleflight fetch
	valueAny, err, _ := authSingleflight.Do(key, func() (any, error) {
		// retrieve cache item
		c.authLock.RLock()
		cacheValue, ok := c.auth[key]
		c.authLock.RUnlock()

		// return cache value if valid
		if ok && cacheValue.expiration.After(time.Now()) {
			return cacheValue.value, nil
		}

		// fetch new result
		value, err := fetch()
		if err != nil {
			return value, err
		}

		// save new result
		c.authLock.Lock()
		c.auth[key] = &item[database.ProjectAuth]{
			expiration: time.Now().Add(config.CACHE_DURATION),
			value:      value,
		}
		c.authLock.Unlock()

		// return new result
		return value, err
	})
	if err != nil {
		return value, err
	}
	value, ok := valueAny.(database.ProjectAuth)
	if !ok {
		return value, errors.New("failed to cast singleflight response value to type")
	}
	return value, err
}
