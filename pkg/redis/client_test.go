package redis

import (
	"testing"
	"time"

	"github.com/qanzmarket/qanz-backend/pkg/config"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address is set")
	}
}

func TestOptionsFromConfigAddress(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		Address:     "localhost:6379",
		Password:    "pw",
		DB:          2,
		PoolSize:    5,
		DialTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.PoolSize != 5 || opts.DialTimeout != 2*time.Second {
		t.Fatalf("pool settings not applied: %+v", opts)
	}
}

func TestOptionsFromConfigURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@example.com:6380/3"})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "example.com:6380" || opts.DB != 3 || opts.Password != "secret" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestKey(t *testing.T) {
	c := &Client{}
	if got := c.Key("changed", "orders"); got != "qanz:changed:orders" {
		t.Fatalf("unexpected key: %s", got)
	}
}
