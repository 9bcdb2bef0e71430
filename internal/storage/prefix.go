package storage

// PrefixDB scopes a DB to one keyspace by prepending a fixed prefix to
// every key. The node uses it to keep each chain id's records apart when
// several networks share a data directory.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB creates a new PrefixDB wrapping inner with the given prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: clone(prefix)}
}

func (p *PrefixDB) key(k []byte) []byte {
	out := make([]byte, len(p.prefix)+len(k))
	copy(out, p.prefix)
	copy(out[len(p.prefix):], k)
	return out
}

// Get retrieves a value by key.
func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(p.key(key))
}

// Put stores a key-value pair.
func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(p.key(key), value)
}

// Delete removes a key.
func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(p.key(key))
}

// Has checks if a key exists.
func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(p.key(key))
}

// ForEach iterates over keys in this namespace. Keys passed to fn have
// the namespace prefix stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(p.key(prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Close is a no-op; the inner DB owns the underlying resources.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch returns a batch of the inner DB with keys rewritten into this
// namespace. Stores without batch support get a buffered, non-atomic batch.
func (p *PrefixDB) NewBatch() Batch {
	if b, ok := p.inner.(Batcher); ok {
		return &prefixBatch{p: p, inner: b.NewBatch()}
	}
	return &fallbackBatch{db: p.inner, p: p}
}

type prefixBatch struct {
	p     *PrefixDB
	inner Batch
}

func (b *prefixBatch) Put(key, value []byte) error { return b.inner.Put(b.p.key(key), value) }
func (b *prefixBatch) Delete(key []byte) error     { return b.inner.Delete(b.p.key(key)) }
func (b *prefixBatch) Commit() error               { return b.inner.Commit() }

type fallbackBatch struct {
	db  DB
	p   *PrefixDB
	ops []batchOp
}

func (b *fallbackBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, newPut(b.p.key(key), value))
	return nil
}

func (b *fallbackBatch) Delete(key []byte) error {
	b.ops = append(b.ops, newDelete(b.p.key(key)))
	return nil
}

func (b *fallbackBatch) Commit() error {
	for _, op := range b.ops {
		var err error
		if op.value == nil {
			err = b.db.Delete(op.key)
		} else {
			err = b.db.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}

// NewBatch returns an atomic batch when db supports one, otherwise a
// buffered batch applied key by key.
func NewBatch(db DB) Batch {
	if b, ok := db.(Batcher); ok {
		return b.NewBatch()
	}
	return &fallbackBatch{db: db, p: &PrefixDB{inner: db}}
}
