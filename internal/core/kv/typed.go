package kv

import (
	"context"
	"time"
)

// TypedKV narrows a KV to a single value type inside a namespace, so
// callers like the snapshot persister get compile-time typing instead of
// bare any round-trips.
type TypedKV[T any] struct {
	store     KV
	namespace string
}

// Scoped wraps store so every key lives under the given namespace. Entries
// written through the result never collide with other namespaces sharing
// the same table.
func Scoped[T any](store KV, namespace string) *TypedKV[T] {
	return &TypedKV[T]{store: store, namespace: namespace}
}

func (t *TypedKV[T]) key(k string) string {
	return t.namespace + ":" + k
}

// Get loads the value stored under key. The zero T accompanies any error.
func (t *TypedKV[T]) Get(ctx context.Context, key string) (T, error) {
	var v T
	err := t.store.Get(ctx, t.key(key), &v)
	return v, err
}

// Set stores value under key with no expiry.
func (t *TypedKV[T]) Set(ctx context.Context, key string, value T) error {
	return t.store.Set(ctx, t.key(key), value)
}

// SetTTL stores value under key, expiring after ttl.
func (t *TypedKV[T]) SetTTL(ctx context.Context, key string, value T, ttl time.Duration) error {
	return t.store.SetTTL(ctx, t.key(key), value, ttl)
}

// Delete removes key. Deleting a missing key is not an error.
func (t *TypedKV[T]) Delete(ctx context.Context, key string) error {
	return t.store.Delete(ctx, t.key(key))
}

// Has reports whether key holds an unexpired value.
func (t *TypedKV[T]) Has(ctx context.Context, key string) (bool, error) {
	return t.store.Has(ctx, t.key(key))
}
