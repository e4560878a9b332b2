package worldstate

import "sync"

// MemDB is an in-memory DB, used by tests in this module and anywhere a
// real DB is needed without a LevelDB file on disk.
type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemDB returns an empty MemDB.
func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (m *MemDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *MemDB) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[string(key)] = cp
	return nil
}

func (m *MemDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemDB) Close() error { return nil }

type memBatchOp struct {
	del   bool
	key   []byte
	value []byte
}

type memBatch struct {
	db  *MemDB
	ops []memBatchOp
}

// NewBatch returns a Batch that buffers writes until Write is called.
func (m *MemDB) NewBatch() Batch {
	return &memBatch{db: m}
}

func (b *memBatch) Set(key, value []byte) {
	b.ops = append(b.ops, memBatchOp{key: key, value: value})
}

func (b *memBatch) Delete(key []byte) {
	b.ops = append(b.ops, memBatchOp{del: true, key: key})
}

func (b *memBatch) Write() error {
	for _, op := range b.ops {
		if op.del {
			if err := b.db.Delete(op.key); err != nil {
				return err
			}
			continue
		}
		if err := b.db.Set(op.key, op.value); err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}

func (b *memBatch) Reset() { b.ops = nil }
