package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-saaty/internal/domain"
	"github.com/ahrav/go-saaty/internal/ports"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())
	return client, mr
}

func sampleReport(id string) *domain.Report {
	agreement := 0.82
	return &domain.Report{
		ID:   id,
		Goal: "choose a vehicle",
		Type: domain.SynthesisAlternatives,
		CriteriaAnalysis: &domain.BlockAnalysis{
			Key:            domain.GoalKey,
			Items:          []string{"price", "safety"},
			Weights:        map[string]float64{"price": 0.75, "safety": 0.25},
			PriorityVector: []float64{0.75, 0.25},
			LambdaMax:      2,
			IsConsistent:   true,
			Respondents:    2,
			Agreement:      &agreement,
		},
		FinalScores: []domain.FinalScore{
			{Name: "sedan", Score: 0.6},
			{Name: "suv", Score: 0.4},
		},
		Ranking:   []string{"sedan", "suv"},
		Solver:    "eigen",
		ElapsedMs: 4,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestRedisResultStore_SaveAndGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	s, err := NewRedisResultStore(client)
	require.NoError(t, err)

	ctx := context.Background()
	report := sampleReport("run-1")

	require.NoError(t, s.Save(ctx, report))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.Goal, got.Goal)
	assert.Equal(t, report.Type, got.Type)
	assert.Equal(t, report.Ranking, got.Ranking)
	assert.Equal(t, report.FinalScores, got.FinalScores)
	assert.Equal(t, report.CriteriaAnalysis.Weights, got.CriteriaAnalysis.Weights)
	require.NotNil(t, got.CriteriaAnalysis.Agreement)
	assert.InDelta(t, 0.82, *got.CriteriaAnalysis.Agreement, 1e-12)
	assert.True(t, report.Timestamp.Equal(got.Timestamp))
}

func TestRedisResultStore_SaveAppliesRetention(t *testing.T) {
	client, mr := setupTestRedis(t)
	s, err := NewRedisResultStore(client)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleReport("run-ttl")))
	assert.Equal(t, defaultReportTTL, mr.TTL(reportKeyPrefix+"run-ttl"))

	s.SetReportTTL(time.Minute)
	require.NoError(t, s.Save(ctx, sampleReport("run-short")))
	assert.Equal(t, time.Minute, mr.TTL(reportKeyPrefix+"run-short"))

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "run-short")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrReportNotFound)
}

func TestRedisResultStore_GetMissing(t *testing.T) {
	client, _ := setupTestRedis(t)
	s, err := NewRedisResultStore(client)
	require.NoError(t, err)

	got, err := s.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ports.ErrReportNotFound)

	var serr *ports.StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "absent", serr.ID)
	assert.Equal(t, "get", serr.Operation)
}

func TestRedisResultStore_SaveOverwrites(t *testing.T) {
	client, _ := setupTestRedis(t)
	s, err := NewRedisResultStore(client)
	require.NoError(t, err)

	ctx := context.Background()
	first := sampleReport("run-2")
	require.NoError(t, s.Save(ctx, first))

	second := sampleReport("run-2")
	second.Ranking = []string{"suv", "sedan"}
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Get(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"suv", "sedan"}, got.Ranking)
}

func TestRedisResultStore_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	s, err := NewRedisResultStore(client)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleReport("run-3")))
	require.NoError(t, s.Delete(ctx, "run-3"))

	_, err = s.Get(ctx, "run-3")
	assert.ErrorIs(t, err, ports.ErrReportNotFound)

	// Deleting a missing report is not an error.
	assert.NoError(t, s.Delete(ctx, "run-3"))
}

func TestRedisResultStore_Validation(t *testing.T) {
	client, _ := setupTestRedis(t)

	t.Run("nil client", func(t *testing.T) {
		s, err := NewRedisResultStore(nil)
		require.Error(t, err)
		assert.Nil(t, s)
	})

	t.Run("report without ID", func(t *testing.T) {
		s, err := NewRedisResultStore(client)
		require.NoError(t, err)

		err = s.Save(context.Background(), &domain.Report{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report must have an ID")
	})
}

func TestRedisResultStore_BackendDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	s, err := NewRedisResultStore(client)
	require.NoError(t, err)

	mr.Close()

	_, err = s.Get(context.Background(), "run-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrReportNotFound)
}

func TestRedisCacheStore_RoundTrip(t *testing.T) {
	client, _ := setupTestRedis(t)
	c, err := NewRedisCacheStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("bytes", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k1", []byte("payload"), 0))

		value, ok, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("payload"), value)
	})

	t.Run("string", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k2", "hello", 0))

		value, ok, err := c.Get(ctx, "k2")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("hello"), value)
	})

	t.Run("structured values are JSON encoded", func(t *testing.T) {
		report := sampleReport("run-cache")
		require.NoError(t, c.Set(ctx, "k3", report, 0))

		value, ok, err := c.Get(ctx, "k3")
		require.NoError(t, err)
		require.True(t, ok)

		var got domain.Report
		require.NoError(t, json.Unmarshal(value.([]byte), &got))
		assert.Equal(t, "run-cache", got.ID)
	})

	t.Run("missing key", func(t *testing.T) {
		value, ok, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, value)
	})
}

func TestRedisCacheStore_Expiration(t *testing.T) {
	client, mr := setupTestRedis(t)
	c, err := NewRedisCacheStore(client)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "temp", []byte("x"), time.Minute))

	_, ok, err := c.Get(ctx, "temp")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok, err = c.Get(ctx, "temp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheStore_DeleteAndClear(t *testing.T) {
	client, _ := setupTestRedis(t)
	c, err := NewRedisCacheStore(client)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, c.Delete(ctx, "a"))
	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	assert.NoError(t, c.Delete(ctx, "a"))

	require.NoError(t, c.Clear(ctx))
	_, ok, err = c.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)
}
