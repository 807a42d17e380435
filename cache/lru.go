// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import lru "github.com/hashicorp/golang-lru"

// LRU is a typed golang-lru cache that counts hits and misses.
type LRU[K comparable, V any] struct {
	cache *lru.Cache
	stats Stats
}

// NewLRU creates an LRU cache holding up to maxSize entries.
// maxSize should be > 0, or an error returned.
func NewLRU[K comparable, V any](maxSize int) (*LRU[K, V], error) {
	c, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{cache: c}, nil
}

func (l *LRU[K, V]) Get(key K) (v V, ok bool) {
	raw, ok := l.cache.Get(key)
	if !ok {
		l.stats.Miss()
		return v, false
	}
	l.stats.Hit()
	return raw.(V), true
}

func (l *LRU[K, V]) Add(key K, value V) {
	l.cache.Add(key, value)
}

func (l *LRU[K, V]) Remove(key K) {
	l.cache.Remove(key)
}

func (l *LRU[K, V]) Len() int {
	return l.cache.Len()
}

// GetOrLoad first tries the cache and calls load on a miss. Failed loads are not cached.
func (l *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	l.Add(key, v)
	return v, nil
}

// Stats returns the hit and miss counters.
func (l *LRU[K, V]) Stats() *Stats {
	return &l.stats
}
