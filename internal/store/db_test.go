package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUsers(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Ping())

	user, err := db.CreateUser(" Alice@Example.com ", "hash")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = db.CreateUser("alice@example.com", "other")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	found, err := db.FindUserByEmail("ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = db.FindUserByEmail("bob@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.CreateUser("  ", "hash")
	assert.Error(t, err)
}

func TestReports(t *testing.T) {
	db := openTestDB(t)
	owner, err := db.CreateUser("owner@example.com", "hash")
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second"} {
		r := &Report{UserID: &owner.ID, Name: name, Category: "minimal-risk", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, r.SetResult(map[string]string{"name": name}))
		require.NoError(t, db.SaveReport(r))
		assert.Len(t, r.ID, 36)
	}
	anonymous := &Report{Name: "anon", Category: "limited-risk"}
	require.NoError(t, db.SaveReport(anonymous))

	rows, total, err := db.ListReportsForUser(owner.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "second", rows[0].Name)
	assert.True(t, rows[0].OwnedBy(owner.ID))

	var payload map[string]string
	require.NoError(t, rows[1].Result(&payload))
	assert.Equal(t, "first", payload["name"])

	got, err := db.GetReport(anonymous.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
	assert.False(t, got.OwnedBy(owner.ID))

	_, err = db.GetReport("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetReport("not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, db.SaveReport(nil))
}
