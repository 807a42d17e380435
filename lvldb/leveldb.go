// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/farm/kv"
)

var _ kv.Store = (*LevelDB)(nil)

// Options options for creating level db instance.
type Options struct {
	CacheSize              int
	OpenFilesCacheCapacity int
}

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}
)

// autoFlushSize is the pending size at which an auto-flush bulk writes.
const autoFlushSize = 64 * opt.KiB

// LevelDB wraps level db impls.
type LevelDB struct {
	db  *leveldb.DB
	stg storage.Storage
}

// New create a persistent level db instance.
// Create an empty one if not exists, or open if already there.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "new persistent level db")
	}
	ldb, err := openLevelDB(stg, opts.CacheSize, opts.OpenFilesCacheCapacity)
	if err != nil {
		stg.Close()
		return nil, err
	}
	return ldb, nil
}

// NewMem create a level db in memory.
func NewMem() (*LevelDB, error) {
	return openLevelDB(storage.NewMemStorage(), 0, 0)
}

func openLevelDB(stg storage.Storage, cacheSize, openFilesCacheCapacity int) (*LevelDB, error) {
	if cacheSize < 16 {
		cacheSize = 16
	}

	if openFilesCacheCapacity < 16 {
		openFilesCacheCapacity = 16
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: openFilesCacheCapacity,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db: db, stg: stg}, nil
}

// IsNotFound to check if the error returned by Get indicates key not found.
func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

// Get retrieve value for given key.
// It returns an error if key not found. The error can be checked via IsNotFound.
func (ldb *LevelDB) Get(key []byte) (value []byte, err error) {
	return ldb.db.Get(key, &readOpt)
}

// Has returns whether a key exists.
func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, &readOpt)
}

// Put save value fo give key.
func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, &writeOpt)
}

// Delete deletes the give key and its value.
func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, &writeOpt)
}

// Close close the level db and releases its storage lock.
// Later operations will all fail.
func (ldb *LevelDB) Close() error {
	if err := ldb.db.Close(); err != nil {
		return err
	}
	return ldb.stg.Close()
}

// Bulk creates a bulk writer. Writes are atomic unless auto flush is enabled.
func (ldb *LevelDB) Bulk() kv.Bulk {
	return &bulk{db: ldb.db, batch: &leveldb.Batch{}}
}

// Iterate creates an iterator over the given key range.
func (ldb *LevelDB) Iterate(r kv.Range) kv.Iterator {
	return ldb.db.NewIterator(&util.Range{
		Start: r.Start,
		Limit: r.Limit,
	}, &readOpt)
}

type bulk struct {
	db        *leveldb.DB
	batch     *leveldb.Batch
	autoFlush bool
}

func (b *bulk) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return b.flushIfNeeded()
}

func (b *bulk) Delete(key []byte) error {
	b.batch.Delete(key)
	return b.flushIfNeeded()
}

func (b *bulk) EnableAutoFlush() {
	b.autoFlush = true
}

func (b *bulk) flushIfNeeded() error {
	if b.autoFlush && len(b.batch.Dump()) >= autoFlushSize {
		return b.Write()
	}
	return nil
}

func (b *bulk) Write() error {
	if b.batch.Len() == 0 {
		return nil
	}
	if err := b.db.Write(b.batch, &writeOpt); err != nil {
		return errors.Wrap(err, "write bulk")
	}
	b.batch.Reset()
	return nil
}
