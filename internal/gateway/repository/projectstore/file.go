package projectstore

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		data, err := os.ReadFile(s.path)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Printf("projectstore: read %s: %v", s.path, err)
			}
			return
		}

		var records []Record
		if err := json.Unmarshal(data, &records); err != nil {
			log.Printf("projectstore: unmarshal %s: %v", s.path, err)
			return
		}
		for _, rec := range records {
			s.byID[rec.SessionID] = rec
		}
	})
}

func (s *Store) saveFile(sessionID string, patch Patch) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.byID[sessionID]
	rec.SessionID = sessionID
	patch.apply(&rec, s.now())
	s.byID[sessionID] = rec
	return s.writeLocked()
}

func (s *Store) loadFile(sessionID string) (Record, bool, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[sessionID]
	return rec, ok, nil
}

func (s *Store) deleteFile(sessionID string) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, sessionID)
	return s.writeLocked()
}

func (s *Store) listByUserFile(userID string) []Record {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0)
	for _, rec := range s.byID {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Store) writeLocked() error {
	records := make([]Record, 0, len(s.byID))
	for _, rec := range s.byID {
		records = append(records, rec)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	return os.WriteFile(s.path, data, 0o644)
}
