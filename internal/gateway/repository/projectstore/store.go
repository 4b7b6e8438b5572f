package projectstore

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store persists project records to a JSON file or, when a DSN is
// configured, to Postgres with an LRU read cache in front.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Record

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, Record]

	now func() time.Time
}

// New creates a file-backed store at path.
func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]Record),
		now:  time.Now,
	}
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Record](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		db:    db,
		cache: cache,
		now:   time.Now,
	}, nil
}

// NewFromEnv picks the Postgres backend when PROJECT_STORE_PG_DSN is set
// and reachable, otherwise falls back to the file backend at path.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("PROJECT_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

// EnsureLoaded prepares the backend (file load or schema creation).
func (s *Store) EnsureLoaded(ctx context.Context) {
	if s == nil {
		return
	}
	if s.db != nil {
		_ = s.ensureSchema(ctx)
		return
	}
	s.ensureLoadedFile()
}

// Save applies patch to the record for sessionID, creating it if absent.
// Only fields present in the patch change; everything else is preserved.
func (s *Store) Save(ctx context.Context, sessionID string, patch Patch) error {
	if s == nil {
		return nil
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	if s.db != nil {
		err := s.saveDB(ctx, sessionID, patch)
		if err == nil && s.cache != nil {
			s.cache.Remove(sessionID)
		}
		return err
	}
	return s.saveFile(sessionID, patch)
}

// Load returns the full record for sessionID, or ok=false when absent.
func (s *Store) Load(ctx context.Context, sessionID string) (Record, bool, error) {
	if s == nil {
		return Record{}, false, nil
	}
	if s.db != nil {
		if s.cache != nil {
			if rec, ok := s.cache.Get(sessionID); ok {
				return rec, true, nil
			}
		}
		rec, ok, err := s.loadDB(ctx, sessionID)
		if err == nil && ok && s.cache != nil {
			s.cache.Add(sessionID, rec)
		}
		return rec, ok, err
	}
	return s.loadFile(sessionID)
}

// Delete removes the record for sessionID.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if s == nil {
		return nil
	}
	if s.db != nil {
		if s.cache != nil {
			s.cache.Remove(sessionID)
		}
		return s.deleteDB(ctx, sessionID)
	}
	return s.deleteFile(sessionID)
}

// ListByUser returns every record owned by userID.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		return s.listByUserDB(ctx, userID)
	}
	return s.listByUserFile(userID), nil
}

// Close releases the database handle if one is open.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
