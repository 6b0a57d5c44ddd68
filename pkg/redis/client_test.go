package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	str, ok := value.(string)
	if !ok {
		cmd.SetErr(errors.New("unexpected value type"))
		return cmd
	}
	f.values[key] = str
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeStore) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := f.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func TestEstimateRoundTrip(t *testing.T) {
	client := NewWithStore(newFakeStore())
	ctx := context.Background()

	if err := client.SetEstimate(ctx, "processing_avg_hours", 26.5, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	hours, err := client.GetEstimate(ctx, "processing_avg_hours")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hours != 26.5 {
		t.Fatalf("expected 26.5, got %v", hours)
	}
}

func TestGetEstimateMissingKey(t *testing.T) {
	client := NewWithStore(newFakeStore())
	_, err := client.GetEstimate(context.Background(), "delivery_avg_hours")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEstimate(t *testing.T) {
	store := newFakeStore()
	client := NewWithStore(store)
	ctx := context.Background()

	if err := client.SetEstimate(ctx, "delivery_avg_hours", 70, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := client.DeleteEstimate(ctx, "delivery_avg_hours"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.GetEstimate(ctx, "delivery_avg_hours"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestEstimateKeyNamespacing(t *testing.T) {
	if got := estimateKey("processing_avg_hours"); got != "souqly:estimates:processing_avg_hours" {
		t.Fatalf("unexpected key %q", got)
	}
}
