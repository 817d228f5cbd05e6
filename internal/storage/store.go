package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
)

// Namespace is the fixed prefix isolating this system's keys from
// unrelated data sharing the same provider
const Namespace = "wntp_"

// subscriber is one logical change listener. An empty key matches every
// key under the namespace.
type subscriber struct {
	area domain.StorageArea
	key  string
	fn   func(domain.ChangeEvent)
}

// Store is a namespaced view over an external asynchronous key-value
// provider. Every key is transparently prefixed before reaching the
// provider and stripped on the way back, so the namespace is invisible to
// callers. The store owns no data, only the mapping logic and the
// subscriber list.
type Store struct {
	logger   *zap.Logger
	provider domain.StorageProvider
	prefix   string

	mu       sync.Mutex
	subs     []subscriber
	watching bool
}

// NewStore creates a store over the given provider. An empty prefix
// selects the default Namespace.
func NewStore(logger *zap.Logger, provider domain.StorageProvider, prefix string) *Store {
	if prefix == "" {
		prefix = Namespace
	}
	return &Store{
		logger:   logger,
		provider: provider,
		prefix:   prefix,
	}
}

// check verifies the area is exposed before any operation is attempted
func (s *Store) check(area domain.StorageArea) error {
	if !s.provider.Has(area) {
		return fmt.Errorf("%w: %s", domain.ErrStorageUnavailable, area)
	}
	return nil
}

// Set stores value under the namespaced key
func (s *Store) Set(ctx context.Context, area domain.StorageArea, key, value string) error {
	if err := s.check(area); err != nil {
		return err
	}
	if err := s.provider.Set(ctx, area, s.prefix+key, value); err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}

// Get retrieves the value stored under the namespaced key. found is false
// when the key is unset, which is distinct from an empty string value.
func (s *Store) Get(ctx context.Context, area domain.StorageArea, key string) (string, bool, error) {
	if err := s.check(area); err != nil {
		return "", false, err
	}
	value, found, err := s.provider.Get(ctx, area, s.prefix+key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, found, nil
}

// Delete removes the namespaced key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, area domain.StorageArea, key string) error {
	if err := s.check(area); err != nil {
		return err
	}
	if err := s.provider.Delete(ctx, area, s.prefix+key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Subscribe registers fn for change events in the given area. An empty key
// subscribes to every key under the namespace. The first call installs the
// single provider watch; it stays installed for the life of the store no
// matter how many logical subscribers are added.
func (s *Store) Subscribe(area domain.StorageArea, key string, fn func(domain.ChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, subscriber{area: area, key: key, fn: fn})

	if !s.watching {
		s.watching = true
		go s.fanout(s.provider.Watch())
		s.logger.Debug("Provider change watch installed", zap.String("prefix", s.prefix))
	}
}

// fanout routes provider events to every matching logical subscriber.
// Events outside the namespace are dropped; the prefix is stripped before
// delivery.
func (s *Store) fanout(events <-chan domain.ChangeEvent) {
	for ev := range events {
		if !strings.HasPrefix(ev.Key, s.prefix) {
			continue
		}
		ev.Key = strings.TrimPrefix(ev.Key, s.prefix)

		s.mu.Lock()
		subs := make([]subscriber, len(s.subs))
		copy(subs, s.subs)
		s.mu.Unlock()

		for _, sub := range subs {
			if sub.area != ev.Area {
				continue
			}
			if sub.key != "" && sub.key != ev.Key {
				continue
			}
			sub.fn(ev)
		}
	}
}
