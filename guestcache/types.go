package guestcache

import (
	"time"
)

type projectKey struct {
	ID string
}

func (k projectKey) String() string {
	return k.ID
}

type authKey struct {
	ProjectID string
}

func (k authKey) String() string {
	return k.ProjectID
}

type item[T any] struct {
	expiration time.Time
	value      T
}
