package state

import (
	"errors"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"minepool/core/types"
	"minepool/storage"
)

// Manager implements the narrow state interfaces of the native engines on
// top of a key-value Database. Records are rlp encoded under keccak-hashed
// prefixed keys. Events raised during an operation are buffered until the
// caller drains them.
type Manager struct {
	db storage.Database

	mu     sync.Mutex
	events []*types.Event
}

// NewManager wraps the database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// AppendEvent buffers an event emitted by an engine operation.
func (m *Manager) AppendEvent(evt *types.Event) {
	if m == nil || evt == nil {
		return
	}
	m.mu.Lock()
	m.events = append(m.events, evt)
	m.mu.Unlock()
}

// DrainEvents returns and clears the buffered events.
func (m *Manager) DrainEvents() []*types.Event {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.events
	m.events = nil
	return out
}

func storageKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) kvPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) kvGet(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}
