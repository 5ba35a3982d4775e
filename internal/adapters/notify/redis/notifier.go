// Package redis guarda la agenda de notificaciones en Redis: un sorted set con el
// instante de disparo como score y un hash con el payload de cada id.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"pet-care-tracker/internal/ports/notify"
)

const DefaultPrefix = "petcare:notifications"

type Entry struct {
	ID        string         `json:"id"`
	Payload   notify.Payload `json:"payload"`
	Trigger   time.Time      `json:"trigger"`
	Repeating bool           `json:"repeating"`
}

type Notifier struct {
	client *redis.Client
	prefix string
}

// Open parsea la URL, hace ping y devuelve el adapter listo.
func Open(ctx context.Context, redisURL, prefix string) (*Notifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, prefix), nil
}

func New(client *redis.Client, prefix string) *Notifier {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Notifier{client: client, prefix: prefix}
}

func (n *Notifier) scheduleKey() string { return n.prefix + ":schedule" }
func (n *Notifier) payloadKey() string  { return n.prefix + ":payload" }

func (n *Notifier) Schedule(ctx context.Context, id string, p notify.Payload, trigger time.Time, repeating bool) error {
	raw, err := json.Marshal(Entry{ID: id, Payload: p, Trigger: trigger.UTC(), Repeating: repeating})
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", id, err)
	}

	_, err = n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, n.scheduleKey(), redis.Z{Score: float64(trigger.Unix()), Member: id})
		pipe.HSet(ctx, n.payloadKey(), id, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule notification %s: %w", id, err)
	}
	return nil
}

func (n *Notifier) Cancel(ctx context.Context, id string) error {
	_, err := n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, n.scheduleKey(), id)
		pipe.HDel(ctx, n.payloadKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cancel notification %s: %w", id, err)
	}
	return nil
}

func (n *Notifier) CancelAll(ctx context.Context) error {
	if err := n.client.Del(ctx, n.scheduleKey(), n.payloadKey()).Err(); err != nil {
		return fmt.Errorf("cancel all notifications: %w", err)
	}
	return nil
}

func (n *Notifier) PendingCount(ctx context.Context) (int, error) {
	c, err := n.client.ZCard(ctx, n.scheduleKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return int(c), nil
}

// Due devuelve las entradas con disparo <= now, en orden de disparo.
func (n *Notifier) Due(ctx context.Context, now time.Time) ([]Entry, error) {
	ids, err := n.client.ZRangeByScore(ctx, n.scheduleKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range due notifications: %w", err)
	}
	if len(ids) == 0 {
		return []Entry{}, nil
	}

	vals, err := n.client.HMGet(ctx, n.payloadKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load notification payloads: %w", err)
	}

	out := make([]Entry, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // payload borrado entre ZRANGE y HMGET
		}
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode notification %s: %w", ids[i], err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (n *Notifier) Close() error { return n.client.Close() }
