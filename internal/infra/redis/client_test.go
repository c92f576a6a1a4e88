package redis

import (
	"context"
	"strconv"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"go.uber.org/zap/zaptest"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/config"
)

func TestNewClientPingsServer(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := NewClient(config.RedisSettings{
		Host: server.Host(),
		Port: mustPort(t, server.Port()),
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestNewClientFailsWhenUnreachable(t *testing.T) {
	server := miniredis.RunT(t)
	port := mustPort(t, server.Port())
	server.Close()

	if _, err := NewClient(config.RedisSettings{Host: "127.0.0.1", Port: port}, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options(config.RedisSettings{Host: "cache", Port: 6380, TLSEnabled: true})

	if opts.Addr != "cache:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.PoolSize != 10 {
		t.Fatalf("expected default pool size 10, got %d", opts.PoolSize)
	}
	if opts.MaxRetries != -1 {
		t.Fatalf("expected retries disabled, got %d", opts.MaxRetries)
	}
	if opts.TLSConfig == nil {
		t.Fatalf("expected tls config when tls enabled")
	}
}

func mustPort(t *testing.T, port string) int {
	t.Helper()
	p, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("invalid port %q: %v", port, err)
	}
	return p
}
