package cart

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/storage"
)

// changed must be called with s.mu held after every effective mutation.
// The snapshot is encoded under the lock; the write happens in the background.
func (s *Store) changed() {
	s.version++
	version := s.version

	items := s.snapshot()
	data, err := json.Marshal(items)
	if err != nil {
		s.recordPersist(version, err)
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.write(version, data)
	}()
}

func (s *Store) write(version uint64, data []byte) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	// A newer snapshot was already attempted.
	if version <= s.written {
		return
	}
	s.written = version

	if err := s.kv.Set(storage.KeyCart, string(data)); err != nil {
		s.persistErr = err
		s.logger.Warn("cart persist failed", zap.Uint64("version", version), zap.Error(err))
		return
	}
	s.persistErr = nil
}

func (s *Store) recordPersist(version uint64, err error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.persistErr = err
	s.logger.Warn("cart encode failed", zap.Uint64("version", version), zap.Error(err))
}

// Flush waits for pending background writes.
func (s *Store) Flush() {
	s.pending.Wait()
}

// PersistError returns the error of the last failed write, or nil once a
// later write succeeds.
func (s *Store) PersistError() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	return s.persistErr
}
