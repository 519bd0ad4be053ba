package bolt

import (
	"context"
	"encoding/json"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/internal/infrastructure/boltdb"
	"github.com/fastygo/todo/repository"
)

// SessionRepository stores sessions in BoltDB. Unlike Redis nothing expires on
// its own, so PurgeExpired must be scheduled.
type SessionRepository struct {
	db  *bbolt.DB
	ttl time.Duration
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a BoltDB-backed session repository.
func NewSessionRepository(store *boltdb.Store, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepository{db: store.DB(), ttl: ttl}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var session *domain.Session
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		session, err = getSession(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return putSession(tx, session)
	})
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltdb.BucketSessions)).Delete([]byte(id))
	})
}

func (r *SessionRepository) Extend(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		session, err := getSession(tx, id)
		if err != nil {
			return err
		}
		if session.IsExpired(time.Now()) {
			return domain.ErrSessionNotFound
		}
		session.ExpiresAt = time.Now().Add(ttl)
		return putSession(tx, session)
	})
}

// PurgeExpired removes sessions that expired before now and reports how many
// were deleted.
func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var purged int
	err := r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltdb.BucketSessions))
		var expired [][]byte
		if err := bucket.ForEach(func(k, v []byte) error {
			var session domain.Session
			if err := json.Unmarshal(v, &session); err != nil || session.IsExpired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, key := range expired {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		purged = len(expired)
		return nil
	})
	return purged, err
}

func getSession(tx *bbolt.Tx, id string) (*domain.Session, error) {
	raw := tx.Bucket([]byte(boltdb.BucketSessions)).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrSessionNotFound
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func putSession(tx *bbolt.Tx, session *domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(boltdb.BucketSessions)).Put([]byte(session.ID), payload)
}
