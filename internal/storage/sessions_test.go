package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboardgo/internal/config"
	"onboardgo/internal/models"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := Open("sqlite3", cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func intPtr(v int) *int { return &v }

func fullSteps(completed int) []models.Step {
	steps := make([]models.Step, 0, models.FunnelSteps)
	for i := 1; i <= models.FunnelSteps; i++ {
		steps = append(steps, models.NewStep(i, models.StepName(i), i <= completed))
	}
	return steps
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{"oracle": {DSN: "x"}}}
	_, err := Open("oracle", cfg)
	require.Error(t, err)

	_, err = Open("mysql", cfg)
	require.Error(t, err)
}

func TestUpsertReplacesWholeRow(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	first := &models.Session{
		ID:          "s1",
		UserID:      "user_1",
		Steps:       fullSteps(2),
		CompletedAt: "2024-01-01T10:00:00Z",
		DropOffStep: intPtr(3),
	}
	require.NoError(t, store.Upsert(ctx, first))

	second := &models.Session{
		ID:          "s1",
		UserID:      "user_2",
		Steps:       fullSteps(5),
		CompletedAt: "2024-01-02T10:00:00Z",
	}
	require.NoError(t, store.Upsert(ctx, second))

	sessions, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	if diff := cmp.Diff(*second, sessions[0], cmp.AllowUnexported(models.Step{})); diff != "" {
		t.Fatalf("stored session mismatch (-want +got):\n%s", diff)
	}
}

func TestListAllOrdersByCompletedAtDesc(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	for _, s := range []models.Session{
		{ID: "a", UserID: "u", Steps: fullSteps(1), CompletedAt: "2024-03-01T00:00:00Z", DropOffStep: intPtr(2)},
		{ID: "b", UserID: "u", Steps: fullSteps(5), CompletedAt: "2024-05-01T00:00:00Z"},
		{ID: "c", UserID: "u", Steps: fullSteps(0), CompletedAt: "2024-04-01T00:00:00Z", DropOffStep: intPtr(1)},
	} {
		s := s
		require.NoError(t, store.Upsert(ctx, &s))
	}

	sessions, err := store.ListAll(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	require.NotNil(t, sessions[2].DropOffStep)
	assert.Equal(t, 2, *sessions[2].DropOffStep)
}

func TestListAllEmptyAndDeleteAll(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	sessions, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)

	require.NoError(t, store.Upsert(ctx, &models.Session{ID: "x", UserID: "u", CompletedAt: "t"}))
	require.NoError(t, store.DeleteAll(ctx))

	sessions, err = store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestUpsertNilSession(t *testing.T) {
	store := NewStore(openTestDB(t))
	require.Error(t, store.Upsert(context.Background(), nil))
}

func TestStepsStoredVerbatim(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	submitted := `[{"name":"Sign Up","index":1,"completed":true},{"stepNumber":0,"completed":false,"extra":{"a":[1,2]}}]`
	var steps []models.Step
	require.NoError(t, json.Unmarshal([]byte(submitted), &steps))
	require.NoError(t, store.Upsert(ctx, &models.Session{ID: "raw", UserID: "u", Steps: steps, CompletedAt: "t"}))

	sessions, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].CompletedSteps())
	got, err := json.Marshal(sessions[0].Steps)
	require.NoError(t, err)
	assert.JSONEq(t, submitted, string(got))
}
