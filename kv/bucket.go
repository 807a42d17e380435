// Copyright (c) 2021 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket is a key prefix carving a namespace out of a shared store.
// Buckets nest when the source store is itself a bucket store.
type Bucket string

// withKey calls fn with key prefixed by the bucket. The prefixed slice is
// pooled and only valid inside fn.
func (b Bucket) withKey(key []byte, fn func(k []byte)) {
	buf := bufPool.Get().(*buf)
	buf.k = append(append(buf.k[:0], b...), key...)
	fn(buf.k)
	bufPool.Put(buf)
}

// bounds maps a range inside the bucket to the range of the source store.
// An empty limit covers the rest of the bucket.
func (b Bucket) bounds(r Range) Range {
	out := Range{Start: append([]byte(b), r.Start...)}
	if len(r.Limit) == 0 {
		out.Limit = util.BytesPrefix([]byte(b)).Limit
	} else {
		out.Limit = append([]byte(b), r.Limit...)
	}
	return out
}

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &struct {
		GetFunc
		HasFunc
		IsNotFoundFunc
	}{
		func(key []byte) (val []byte, err error) {
			b.withKey(key, func(k []byte) { val, err = src.Get(k) })
			return
		},
		func(key []byte) (has bool, err error) {
			b.withKey(key, func(k []byte) { has, err = src.Has(k) })
			return
		},
		src.IsNotFound,
	}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &struct {
		PutFunc
		DeleteFunc
	}{
		func(key, val []byte) (err error) {
			b.withKey(key, func(k []byte) { err = src.Put(k, val) })
			return
		},
		func(key []byte) (err error) {
			b.withKey(key, func(k []byte) { err = src.Delete(k) })
			return
		},
	}
}

// NewStore creates a bucket store from the source store. Iterators yield
// keys with the bucket stripped.
func (b Bucket) NewStore(src Store) Store {
	return &struct {
		Getter
		Putter
		BulkFunc
		IterateFunc
	}{
		b.NewGetter(src),
		b.NewPutter(src),
		func() Bulk {
			bulk := src.Bulk()
			return &struct {
				Putter
				EnableAutoFlushFunc
				WriteFunc
			}{
				b.NewPutter(bulk),
				bulk.EnableAutoFlush,
				bulk.Write,
			}
		},
		func(r Range) Iterator {
			return &bucketIterator{src.Iterate(b.bounds(r)), len(b)}
		},
	}
}

type bucketIterator struct {
	Iterator
	strip int
}

func (it *bucketIterator) Key() []byte {
	return it.Iterator.Key()[it.strip:]
}

type buf struct {
	k []byte
}

var bufPool = sync.Pool{
	New: func() any {
		return &buf{}
	},
}
