// Package manager provides the concurrent store the connection registry is
// built on.
package manager

import (
	"fmt"

	"github.com/go-zoox/core-utils/safe"
)

type Manager[T any] struct {
	cache *safe.Map
}

func New[T any]() *Manager[T] {
	return &Manager[T]{
		cache: safe.NewMap(),
	}
}

func (m *Manager[T]) Get(id string) (T, error) {
	if instance, ok := m.cache.Get(id).(T); ok {
		return instance, nil
	}

	var t T
	return t, fmt.Errorf("id %s not found", id)
}

func (m *Manager[T]) Set(id string, instance T) error {
	m.cache.Set(id, instance)
	return nil
}

func (m *Manager[T]) Remove(id string) error {
	m.cache.Del(id)
	return nil
}

// Keys returns the ids currently present. The result is a snapshot; entries
// may come and go while the caller walks it.
func (m *Manager[T]) Keys() []string {
	return m.cache.Keys()
}

func (m *Manager[T]) Size() int {
	return len(m.cache.Keys())
}
