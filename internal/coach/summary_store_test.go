package coach_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/2beens/formcheck/internal/coach"
	"github.com/2beens/formcheck/internal/session"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string) *coach.SummaryRecord {
	return &coach.SummaryRecord{
		SessionID: id,
		Exercise:  "squat",
		Complete:  true,
		Summary: session.Summary{
			TotalReps:         5,
			AverageScore:      82,
			CleanReps:         3,
			BestRepScore:      100,
			WorstRepScore:     55,
			MostFrequentIssue: "Go deeper, hips below knees.",
		},
		SavedAt: time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC),
	}
}

func TestRedisSummaryStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := coach.NewRedisSummaryStore(rdb, time.Hour)
	ctx := context.Background()

	rec := testRecord("s1")
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectSet("formcheck:summary:s1", string(data), time.Hour).SetVal("OK")
	require.NoError(t, store.Save(ctx, rec))

	mock.ExpectGet("formcheck:summary:s1").SetVal(string(data))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	mock.ExpectGet("formcheck:summary:nope").SetErr(redis.Nil)
	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, coach.ErrSummaryNotFound)

	mock.ExpectGet("formcheck:summary:broken").SetVal("{not json")
	_, err = store.Get(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, coach.ErrSummaryNotFound)

	mock.ExpectSet("formcheck:summary:s1", string(data), time.Hour).SetErr(errors.New("connection refused"))
	assert.Error(t, store.Save(ctx, rec))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySummaryStore(t *testing.T) {
	store := coach.NewMemorySummaryStore(1, time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, coach.ErrSummaryNotFound)

	rec := testRecord("s1")
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	rec.Summary.TotalReps = 6
	require.NoError(t, store.Save(ctx, rec))
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 6, got.Summary.TotalReps)
}
