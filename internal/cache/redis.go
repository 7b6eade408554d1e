// internal/cache/redis.go
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jason-s-yu/yazy/internal/relay"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Connect opens a Redis client and checks it with a PING.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// StatsSource is anything that can report live relay stats.
type StatsSource interface {
	Stats() relay.Stats
}

// StatsPublisher periodically writes a StatsSource snapshot to a Redis hash so that
// several server instances can be watched from one place.
type StatsPublisher struct {
	rdb      redis.Cmdable
	source   StatsSource
	key      string
	instance string
	interval time.Duration
	log      logrus.FieldLogger
}

// NewStatsPublisher builds a publisher writing to key every interval. Fields are
// prefixed with instance so that servers sharing a key do not overwrite each other.
func NewStatsPublisher(rdb redis.Cmdable, source StatsSource, key, instance string, interval time.Duration, log logrus.FieldLogger) *StatsPublisher {
	return &StatsPublisher{
		rdb:      rdb,
		source:   source,
		key:      key,
		instance: instance,
		interval: interval,
		log:      log,
	}
}

// Publish writes one snapshot.
func (p *StatsPublisher) Publish(ctx context.Context) error {
	s := p.source.Stats()
	values := map[string]interface{}{
		p.field("connections"):     s.Connections,
		p.field("rooms"):           s.Rooms,
		p.field("sessions"):        s.Sessions,
		p.field("pendingJoins"):    s.PendingJoins,
		p.field("sessionsStarted"): s.SessionsStarted,
		p.field("rollsRelayed"):    s.RollsRelayed,
		p.field("joinsExpired"):    s.JoinsExpired,
		p.field("updatedAt"):       time.Now().Unix(),
	}
	if err := p.rdb.HSet(ctx, p.key, values).Err(); err != nil {
		return fmt.Errorf("failed to HSET stats to '%s': %w", p.key, err)
	}
	return nil
}

// Run publishes every interval until ctx is done. Failed writes are logged and retried
// on the next tick. The instance's fields are removed on the way out.
func (p *StatsPublisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if err := p.Publish(ctx); err != nil {
		p.log.WithError(err).Warn("stats publish failed")
	}
	for {
		select {
		case <-ctx.Done():
			p.clear()
			return nil
		case <-ticker.C:
			if err := p.Publish(ctx); err != nil {
				p.log.WithError(err).Warn("stats publish failed")
			}
		}
	}
}

func (p *StatsPublisher) clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fields := []string{
		"connections", "rooms", "sessions", "pendingJoins",
		"sessionsStarted", "rollsRelayed", "joinsExpired", "updatedAt",
	}
	for i, f := range fields {
		fields[i] = p.field(f)
	}
	if err := p.rdb.HDel(ctx, p.key, fields...).Err(); err != nil {
		p.log.WithError(err).Warn("failed to clear stats")
	}
}

func (p *StatsPublisher) field(name string) string {
	return p.instance + ":" + name
}
