package record

import (
	"encoding/json"

	"github.com/google/btree"
)

const (
	// MaxMessageKeys bounds the unconsumed message keys kept per chain.
	MaxMessageKeys = 2000

	treeDegree = 8
)

type messageKey struct {
	Counter int64  `json:"counter"`
	Key     []byte `json:"key"`
}

func lessMessageKey(a, b messageKey) bool { return a.Counter < b.Counter }

// MessageKeys is a deletion-on-read map from counter to message key. Once it
// holds MaxMessageKeys entries the smallest counters are evicted.
// The zero value is ready to use.
type MessageKeys struct {
	tree *btree.BTreeG[messageKey]
}

func (m *MessageKeys) init() {
	if m.tree == nil {
		m.tree = btree.NewG(treeDegree, lessMessageKey)
	}
}

// Put stores key under counter, replacing any previous entry.
func (m *MessageKeys) Put(counter int64, key []byte) {
	m.init()
	m.tree.ReplaceOrInsert(messageKey{Counter: counter, Key: key})
	for m.tree.Len() > MaxMessageKeys {
		m.tree.DeleteMin()
	}
}

// Take removes and returns the key stored under counter.
func (m *MessageKeys) Take(counter int64) ([]byte, bool) {
	if m.tree == nil {
		return nil, false
	}
	item, ok := m.tree.Delete(messageKey{Counter: counter})
	return item.Key, ok
}

// Has reports whether a key is stored under counter.
func (m *MessageKeys) Has(counter int64) bool {
	if m.tree == nil {
		return false
	}
	return m.tree.Has(messageKey{Counter: counter})
}

// Len returns the number of stored keys.
func (m *MessageKeys) Len() int {
	if m.tree == nil {
		return 0
	}
	return m.tree.Len()
}

// Counters returns the stored counters in ascending order.
func (m *MessageKeys) Counters() []int64 {
	out := make([]int64, 0, m.Len())
	if m.tree == nil {
		return out
	}
	m.tree.Ascend(func(item messageKey) bool {
		out = append(out, item.Counter)
		return true
	})
	return out
}

// Clone returns a deep copy.
func (m *MessageKeys) Clone() MessageKeys {
	var out MessageKeys
	if m.tree == nil {
		return out
	}
	out.init()
	m.tree.Ascend(func(item messageKey) bool {
		out.tree.ReplaceOrInsert(messageKey{Counter: item.Counter, Key: cloneBytes(item.Key)})
		return true
	})
	return out
}

// MarshalJSON encodes the keys as an ascending list.
func (m MessageKeys) MarshalJSON() ([]byte, error) {
	items := make([]messageKey, 0, m.Len())
	if m.tree != nil {
		m.tree.Ascend(func(item messageKey) bool {
			items = append(items, item)
			return true
		})
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes a list written by MarshalJSON.
func (m *MessageKeys) UnmarshalJSON(b []byte) error {
	var items []messageKey
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	m.tree = nil
	for _, item := range items {
		m.Put(item.Counter, item.Key)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
