package postgres

import (
	"time"

	"github.com/google/uuid"
)

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// isUUID guards uuid columns: a malformed id can never match a row, and
// Postgres would otherwise reject the query outright.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
