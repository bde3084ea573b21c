package store

import (
	"bytes"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/btree"
)

// backend is the byte-level key/value layer a Store persists through.
type backend interface {
	get(key string) ([]byte, bool, error)
	set(key string, val []byte) error
	del(key string) error
	// scan returns the values of all keys starting with prefix, in key order.
	scan(prefix string) ([][]byte, error)
	close() error
}

// ---------- memory ----------

type item struct {
	key string
	val []byte
}

func lessItem(a, b item) bool { return a.key < b.key }

// memBackend keeps everything in an ordered tree. Values are copied in and
// out so callers never share buffers with the tree.
type memBackend struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[item]
}

func newMemBackend() *memBackend {
	return &memBackend{tree: btree.NewG(16, lessItem)}
}

func (m *memBackend) get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.tree.Get(item{key: key})
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(it.val), true, nil
}

func (m *memBackend) set(key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.ReplaceOrInsert(item{key: key, val: bytes.Clone(val)})
	return nil
}

func (m *memBackend) del(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.Delete(item{key: key})
	return nil
}

func (m *memBackend) scan(prefix string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out [][]byte
	m.tree.AscendGreaterOrEqual(item{key: prefix}, func(it item) bool {
		if len(it.key) < len(prefix) || it.key[:len(prefix)] != prefix {
			return false
		}
		out = append(out, bytes.Clone(it.val))
		return true
	})
	return out, nil
}

func (m *memBackend) close() error { return nil }

// ---------- badger ----------

type badgerBackend struct {
	db *badger.DB
}

func openBadgerBackend(dir string) (*badgerBackend, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerBackend{db: db}, nil
}

func (b *badgerBackend) get(key string) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = it.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (b *badgerBackend) set(key string, val []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
}

func (b *badgerBackend) del(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *badgerBackend) scan(prefix string) ([][]byte, error) {
	var out [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func (b *badgerBackend) close() error { return b.db.Close() }
