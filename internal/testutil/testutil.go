// Package testutil provides shared test helpers for setting up the comment
// store and draft tokens.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jasoncui/notion-blog/internal/models"
	"github.com/jasoncui/notion-blog/internal/store"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "blog-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// Token inserts an active draft token for documentID and returns it.
func Token(t *testing.T, st *store.Store, documentID, slug string) *models.DraftToken {
	t.Helper()
	dt := &models.DraftToken{
		ID:         uuid.NewString(),
		Token:      store.NewTokenValue(),
		DocumentID: documentID,
		Slug:       slug,
		Title:      "Test draft",
		ExpiresAt:  time.Now().Add(store.TokenTTL),
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if err := st.CreateToken(dt); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	return dt
}
