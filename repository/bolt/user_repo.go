package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/internal/infrastructure/boltdb"
	"github.com/fastygo/todo/repository"
)

// userRecord keeps the password hash, which domain.User hides from JSON.
type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type userRepository struct {
	db *bbolt.DB
}

// NewUserRepository instantiates a BoltDB-backed user repository. Usernames are
// indexed in their normalized form so uniqueness is case-insensitive.
func NewUserRepository(store *boltdb.Store) repository.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *domain.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		user, err = getUser(tx, id)
		return err
	})
	return user, err
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *domain.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(boltdb.BucketUsernames)).Get([]byte(domain.NormalizeUsername(username)))
		if id == nil {
			return domain.ErrUserNotFound
		}
		var err error
		user, err = getUser(tx, string(id))
		return err
	})
	return user, err
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	return r.db.Update(func(tx *bbolt.Tx) error {
		names := tx.Bucket([]byte(boltdb.BucketUsernames))
		key := []byte(domain.NormalizeUsername(user.Username))
		if names.Get(key) != nil {
			return domain.ErrUsernameTaken
		}
		if err := putUser(tx, user); err != nil {
			return err
		}
		return names.Put(key, []byte(user.ID))
	})
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		existing, err := getUser(tx, user.ID)
		if err != nil {
			return err
		}
		existing.Email = user.Email
		existing.Bio = user.Bio
		existing.Location = user.Location
		existing.UpdatedAt = time.Now().UTC()
		if err := putUser(tx, existing); err != nil {
			return err
		}
		user.UpdatedAt = existing.UpdatedAt
		return nil
	})
}

func getUser(tx *bbolt.Tx, id string) (*domain.User, error) {
	raw := tx.Bucket([]byte(boltdb.BucketUsers)).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrUserNotFound
	}
	var rec userRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return &domain.User{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Bio:          rec.Bio,
		Location:     rec.Location,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

func putUser(tx *bbolt.Tx, user *domain.User) error {
	payload, err := json.Marshal(userRecord{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Bio:          user.Bio,
		Location:     user.Location,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(boltdb.BucketUsers)).Put([]byte(user.ID), payload)
}
