//go:build integration

package client

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/falcon-vulns/internal/testutil"
	"github.com/Sternrassler/falcon-vulns/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

// newRedisBackedClient creates a client whose OAuth tokens are cached in
// the given Redis instance.
func newRedisBackedClient(t *testing.T, mock *testutil.MockFalcon, redisClient *redis.Client) *Client {
	t.Helper()

	cfg := DefaultConfig(testAuthContext(mock.URL()))
	cfg.Redis = redisClient
	cfg.Retry = RetryConfig{MaxRetries: 5, BaseDelay: 5 * time.Millisecond}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestIntegration_FullRetrievalFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockFalcon()
	defer mock.Close()

	mock.SetVulnerabilitiesHandler(testutil.PagedVulnerabilitiesHandler(700))

	client := newRedisBackedClient(t, mock, redisClient)
	ctx := context.Background()

	if err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}

	var pages int
	records, err := client.QueryVulnerabilities(ctx, defaultCriteria(),
		func(page, totalPages, records int) { pages = page })
	if err != nil {
		t.Fatalf("QueryVulnerabilities() failed: %v", err)
	}

	if len(records) != 700 {
		t.Errorf("Records = %d, want 700", len(records))
	}
	if pages != 2 {
		t.Errorf("Pages = %d, want 2", pages)
	}

	offsets := mock.GetOffsets()
	if len(offsets) != 2 || offsets[0] != 0 || offsets[1] != 500 {
		t.Errorf("Offsets = %v, want [0 500]", offsets)
	}

	// The whole flow runs on a single token.
	if count := mock.GetTokenRequestCount(); count != 1 {
		t.Errorf("Token requests = %d, want 1", count)
	}

	// The token landed in Redis for the next invocation.
	tokenCache := cache.NewTokenCache(redisClient, "test-client-id")
	if _, err := tokenCache.Get(ctx); err != nil {
		t.Errorf("Expected cached token in Redis, got: %v", err)
	}
}

func TestIntegration_TokenSharedAcrossClients(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockFalcon()
	defer mock.Close()

	ctx := context.Background()

	// First client fetches a fresh token and caches it.
	first := newRedisBackedClient(t, mock, redisClient)
	if err := first.Authenticate(ctx); err != nil {
		t.Fatalf("First Authenticate() failed: %v", err)
	}
	if count := mock.GetTokenRequestCount(); count != 1 {
		t.Fatalf("Token requests after first client = %d, want 1", count)
	}

	// A second client with the same credentials reuses the cached token
	// instead of hitting the token endpoint again.
	second := newRedisBackedClient(t, mock, redisClient)
	if err := second.Authenticate(ctx); err != nil {
		t.Fatalf("Second Authenticate() failed: %v", err)
	}
	if _, err := second.QueryVulnerabilities(ctx, defaultCriteria(), nil); err != nil {
		t.Fatalf("QueryVulnerabilities() failed: %v", err)
	}

	if count := mock.GetTokenRequestCount(); count != 1 {
		t.Errorf("Token requests after second client = %d, want 1 (cached)", count)
	}
}

func TestIntegration_RedisOutageFallback(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)

	mock := testutil.NewMockFalcon()
	defer mock.Close()

	ctx := context.Background()

	first := newRedisBackedClient(t, mock, redisClient)
	if err := first.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}

	// Kill Redis. The next client cannot reach the cache and falls back
	// to a fresh token fetch.
	cleanup()

	second := newRedisBackedClient(t, mock, redisClient)
	if err := second.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate() after Redis outage failed: %v", err)
	}

	records, err := second.QueryVulnerabilities(ctx, defaultCriteria(), nil)
	if err != nil {
		t.Fatalf("QueryVulnerabilities() after Redis outage failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Records = %d, want 0", len(records))
	}

	if count := mock.GetTokenRequestCount(); count != 2 {
		t.Errorf("Token requests = %d, want 2 (fresh token after outage)", count)
	}
}
