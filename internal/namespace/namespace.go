// Package namespace partitions the single Pebble keyspace into isolated
// namespaces and keeps one metadata record per namespace.
//
// Layout (byte-wise, lexicographically sortable):
//   - {tag}/{key}     data keys, tag is a single byte per namespace
//   - meta/{name}     namespace metadata (JSON)
//   - meta/{name}/... auxiliary per-namespace state (e.g. sequence reservations)
package namespace

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pebblestore "github.com/rhurkes/wx-storage/internal/storage/pebble"
)

// Name identifies a namespace.
type Name string

const (
	Events  Name = "events"
	General Name = "general"
)

// ErrFormatVersion is returned when a namespace was written by an incompatible layout.
var ErrFormatVersion = errors.New("namespace format version mismatch")

var (
	sep        = byte('/')
	metaPrefix = []byte("meta/")
	tags       = map[Name]byte{Events: 'e', General: 'g'}
)

// Meta holds namespace metadata. FormatVersion versions the record layout of
// the whole namespace; individual records carry no schema information.
type Meta struct {
	Name          string `json:"name"`
	CreatedAtMs   int64  `json:"createdAtMs"`
	FormatVersion int    `json:"formatVersion"`
}

// Prefix returns the data-key prefix for n.
func Prefix(n Name) []byte {
	tag, ok := tags[n]
	if !ok {
		panic(fmt.Sprintf("namespace: unknown namespace %q", n))
	}
	return []byte{tag, sep}
}

// Key builds a data key for n. The result does not alias suffix.
func Key(n Name, suffix []byte) []byte {
	p := Prefix(n)
	k := make([]byte, 0, len(p)+len(suffix))
	k = append(k, p...)
	return append(k, suffix...)
}

// Bounds returns the [lower, upper) range containing every data key of n.
func Bounds(n Name) (lower, upper []byte) {
	lower = Prefix(n)
	upper = append([]byte(nil), lower...)
	upper[len(upper)-1]++
	return lower, upper
}

// MetaKey builds the metadata key for n, optionally extended by sub-path segments.
func MetaKey(n Name, sub ...string) []byte {
	k := make([]byte, 0, len(metaPrefix)+len(n)+16)
	k = append(k, metaPrefix...)
	k = append(k, n...)
	for _, s := range sub {
		k = append(k, sep)
		k = append(k, s...)
	}
	return k
}

// EnsureNamespace creates the metadata record if absent and verifies the
// format version of an existing one. Idempotent.
func EnsureNamespace(db *pebblestore.DB, n Name, formatVersion int) (Meta, error) {
	key := MetaKey(n)
	if b, err := db.Get(key); err == nil && len(b) > 0 {
		var m Meta
		if err := json.Unmarshal(b, &m); err != nil {
			return Meta{}, fmt.Errorf("namespace %s: decode meta: %w", n, err)
		}
		if m.FormatVersion != formatVersion {
			return m, fmt.Errorf("%w: %s has v%d, want v%d", ErrFormatVersion, n, m.FormatVersion, formatVersion)
		}
		return m, nil
	} else if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return Meta{}, err
	}
	m := Meta{Name: string(n), CreatedAtMs: time.Now().UnixMilli(), FormatVersion: formatVersion}
	b, err := json.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := db.Set(key, b); err != nil {
		return Meta{}, err
	}
	return m, nil
}
