package session

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/storefront/internal/store"
)

// SQLiteStore keeps sessions in the sessions table of a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSQLiteStore creates a store on an already migrated database. Expired
// rows are purged every sweepInterval.
func NewSQLiteStore(db *sql.DB, ttl, sweepInterval time.Duration) *SQLiteStore {
	s := &SQLiteStore{db: db, ttl: ttl, stopChan: make(chan struct{})}
	if sweepInterval > 0 {
		s.startSweeper(sweepInterval)
	}
	return s
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	rec, err := store.GetSession(ctx, s.db, id, time.Now())
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return decode(rec.Data)
}

func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now()
	data, err := encode(sess)
	if err != nil {
		return err
	}
	return store.SaveSession(ctx, s.db, sess.ID, data, sess.UpdatedAt.Add(s.ttl))
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return store.DeleteSession(ctx, s.db, id)
}

func (s *SQLiteStore) startSweeper(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := store.DeleteExpiredSessions(ctx, s.db, now)
				cancel()
				if err != nil {
					slog.Error("failed to purge expired sessions", "error", err)
				} else if n > 0 {
					slog.Debug("purged expired sessions", "count", n)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Close stops the sweeper. The database is owned by the caller.
func (s *SQLiteStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}
