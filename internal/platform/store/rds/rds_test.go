package rds

import (
	"context"
	"testing"
	"time"

	"quickgithub/internal/platform/testkit"

	"github.com/redis/go-redis/v9"
)

func TestOpenRejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{URL: "http://nope"}); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestOpenAppliesOptions(t *testing.T) {
	testkit.Serial(t)

	var seen *redis.Options
	testkit.Swap(t, &newClient, func(o *redis.Options) *redis.Client {
		seen = o
		return redis.NewClient(o)
	})

	c, err := Open(context.Background(), Config{
		URL:         "redis://:secret@cache:6380/2",
		PoolSize:    32,
		DialTimeout: 2 * time.Second,
		ClientName:  "quickgithub-api",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if seen.Addr != "cache:6380" || seen.DB != 2 || seen.Password != "secret" {
		t.Fatalf("url not parsed: %+v", seen)
	}
	if seen.PoolSize != 32 || seen.DialTimeout != 2*time.Second || seen.ClientName != "quickgithub-api" {
		t.Fatalf("knobs not applied: %+v", seen)
	}
}
