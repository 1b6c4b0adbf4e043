package probe

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

const defaultRedisTimeout = 10 * time.Second

// RedisProber parses the monitor URL as a redis connection string, opens a
// client and issues PING.
type RedisProber struct{}

func (RedisProber) Probe(ctx context.Context, m *monitor.Monitor) (Outcome, error) {
	start := time.Now()

	opts, err := redis.ParseURL(m.URL)
	if err != nil {
		return refused(start, err.Error(), 500), err
	}
	opts.DialTimeout = defaultRedisTimeout

	ctx, cancel := context.WithTimeout(ctx, defaultRedisTimeout)
	defer cancel()

	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Redis connection refused"
		}
		return refused(start, msg, 500), err
	}

	return established(start, "Redis server running", 200), nil
}
