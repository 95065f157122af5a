package eventlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rhurkes/wx-storage/internal/namespace"
	pebblestore "github.com/rhurkes/wx-storage/internal/storage/pebble"
)

// DefaultSequenceBlock is how many disambiguators are reserved per durable write.
const DefaultSequenceBlock = 4096

// Sequencer hands out strictly increasing disambiguators shared by all
// writers. Values are reserved in blocks whose upper bound is persisted
// before any value from the block is used, so a restart resumes above every
// value ever handed out. Gaps are allowed.
type Sequencer struct {
	db    *pebblestore.DB
	key   []byte
	block uint64

	next  atomic.Uint64
	limit atomic.Uint64 // exclusive, durably reserved
	mu    sync.Mutex
}

// OpenSequencer loads the persisted reservation for the events namespace.
func OpenSequencer(db *pebblestore.DB, block uint64) (*Sequencer, error) {
	if block == 0 {
		block = DefaultSequenceBlock
	}
	s := &Sequencer{db: db, key: namespace.MetaKey(namespace.Events, "seq"), block: block}
	b, err := db.Get(s.key)
	switch {
	case err == nil && len(b) == 8:
		reserved := binary.BigEndian.Uint64(b)
		s.next.Store(reserved)
		s.limit.Store(reserved)
	case err == nil:
		return nil, fmt.Errorf("eventlog: sequence reservation has %d bytes", len(b))
	case !errors.Is(err, pebblestore.ErrNotFound):
		return nil, err
	}
	return s, nil
}

// Next returns the next disambiguator.
func (s *Sequencer) Next() (uint64, error) {
	n := s.next.Add(1) - 1
	if n < s.limit.Load() {
		return n, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if n < s.limit.Load() {
		return n, nil
	}
	newLimit := n + 1 + s.block
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], newLimit)
	if err := s.db.Set(s.key, b[:]); err != nil {
		return 0, fmt.Errorf("%w: reserve sequence block: %v", ErrWriteFailed, err)
	}
	s.limit.Store(newLimit)
	return n, nil
}
