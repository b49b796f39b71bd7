package state

import "sort"

// VersionedReader serves reads together with the version of the key at the
// time of the read. Absent keys report a nil value.
type VersionedReader interface {
	ReadVersioned(key []byte) ([]byte, uint64, error)
}

// Write is a single buffered mutation.
type Write struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Overlay buffers the writes of one transaction on top of a versioned store
// and remembers the version of every key it read through to the store.
type Overlay struct {
	src    VersionedReader
	reads  map[string]uint64
	writes map[string]Write
}

// NewOverlay starts an empty overlay over src.
func NewOverlay(src VersionedReader) *Overlay {
	return &Overlay{
		src:    src,
		reads:  make(map[string]uint64),
		writes: make(map[string]Write),
	}
}

// Get implements KV. Buffered writes shadow the underlying store.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	if w, ok := o.writes[string(key)]; ok {
		if w.Delete {
			return nil, nil
		}
		return append([]byte(nil), w.Value...), nil
	}
	value, version, err := o.src.ReadVersioned(key)
	if err != nil {
		return nil, err
	}
	if _, seen := o.reads[string(key)]; !seen {
		o.reads[string(key)] = version
	}
	return value, nil
}

// Put implements KV.
func (o *Overlay) Put(key, value []byte) error {
	k := string(key)
	o.writes[k] = Write{Key: []byte(k), Value: append([]byte(nil), value...)}
	return nil
}

// Delete implements KV.
func (o *Overlay) Delete(key []byte) error {
	k := string(key)
	o.writes[k] = Write{Key: []byte(k), Delete: true}
	return nil
}

// ReadSet returns the version observed for every key read from the store.
func (o *Overlay) ReadSet() map[string]uint64 {
	out := make(map[string]uint64, len(o.reads))
	for k, v := range o.reads {
		out[k] = v
	}
	return out
}

// WriteSet returns the buffered writes ordered by key.
func (o *Overlay) WriteSet() []Write {
	out := make([]Write, 0, len(o.writes))
	for _, w := range o.writes {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i].Key) < string(out[j].Key) })
	return out
}
