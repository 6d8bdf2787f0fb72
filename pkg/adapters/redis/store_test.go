package redis_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/tendrilhq/tendril/pkg/adapters/redis"
	"github.com/tendrilhq/tendril/pkg/ports/tests"
)

func newClient(t *testing.T) *backend.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStore_Contract(t *testing.T) {
	store := redis.NewFromClient(newClient(t))
	tests.RunSessionStoreContract(t, store)
}

func TestRedisStore_Options(t *testing.T) {
	store := redis.NewFromClient(newClient(t), redis.WithPrefix("custom:"), redis.WithTTL(time.Minute))
	tests.RunSessionStoreContract(t, store)
}
