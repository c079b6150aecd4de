package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trungdq/restaurant-booking/internal/model"
)

// HoldRepo stores table holds in Redis.  A hold is a key
// "hold:<userId>:<tableId>" with a JSON value and a server-side TTL;
// Redis eviction is the authoritative expiry mechanism, and the expiry
// watcher turns the keyspace notification into a push event.  Two
// guard keys with the same TTL enforce the invariants atomically: one
// per table (no two customers hold the same table) and one per user
// (at most one active hold per session).
type HoldRepo struct {
	rdb *redis.Client
}

// NewHoldRepo returns a HoldRepo bound to the given Redis client.
func NewHoldRepo(rdb *redis.Client) *HoldRepo { return &HoldRepo{rdb: rdb} }

func tableGuardKey(tableID uint64) string { return fmt.Sprintf("held:table:%d", tableID) }
func userGuardKey(userID uint64) string   { return fmt.Sprintf("held:user:%d", userID) }

// createScript claims the hold and both guards in one round trip so
// two concurrent requests cannot both win.
var createScript = redis.NewScript(`
    if redis.call('EXISTS', KEYS[2]) == 1 then
        return 'table_held'
    end
    if redis.call('EXISTS', KEYS[3]) == 1 then
        return 'user_has_hold'
    end
    redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[2])
    redis.call('SET', KEYS[2], ARGV[3], 'EX', ARGV[2])
    redis.call('SET', KEYS[3], KEYS[1], 'EX', ARGV[2])
    return 'ok'
`)

// Create claims the table for the hold's user with the given TTL and
// returns the hold key.  ErrConflict is returned when the table is
// already held by someone else or the user already holds a table.
func (r *HoldRepo) Create(ctx context.Context, hold model.TableHold, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(hold)
	if err != nil {
		return "", err
	}
	key := model.HoldKey(hold.UserID, hold.TableID)
	keys := []string{key, tableGuardKey(hold.TableID), userGuardKey(hold.UserID)}
	args := []interface{}{payload, int64(ttl / time.Second), hold.UserID}

	res, err := createScript.Run(ctx, r.rdb, keys, args...).Text()
	if err != nil {
		return "", err
	}
	if res != "ok" {
		return "", fmt.Errorf("%w: %s", ErrConflict, res)
	}
	return key, nil
}

// Get loads the hold stored under key, or ErrNotFound when the key is
// gone (expired, released or never taken).
func (r *HoldRepo) Get(ctx context.Context, key string) (*model.TableHold, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var hold model.TableHold
	if err := json.Unmarshal(raw, &hold); err != nil {
		return nil, err
	}
	return &hold, nil
}

// TTL reports the remaining seconds before Redis evicts the hold.  A
// missing key reports 0 – expired holds are indistinguishable from
// released ones on purpose, the client treats both as absent.
func (r *HoldRepo) TTL(ctx context.Context, key string) (int, error) {
	d, err := r.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, nil
	}
	return int(d / time.Second), nil
}

// Delete releases the hold and its guard keys.  Deleting a missing
// hold returns ErrNotFound so the handler can answer 404.
func (r *HoldRepo) Delete(ctx context.Context, key string) error {
	userID, tableID, ok := model.ParseHoldKey(key)
	if !ok {
		return ErrNotFound
	}
	n, err := r.rdb.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	// Guards are best-effort cleanup; they share the hold's TTL anyway.
	r.rdb.Del(ctx, tableGuardKey(tableID), userGuardKey(userID))
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HeldTableIDs returns the set of tables currently claimed by an
// active hold, for overlaying availability onto the table listing.
func (r *HoldRepo) HeldTableIDs(ctx context.Context) (map[uint64]bool, error) {
	held := make(map[uint64]bool)
	iter := r.rdb.Scan(ctx, 0, "held:table:*", 100).Iterator()
	for iter.Next(ctx) {
		var tableID uint64
		if _, err := fmt.Sscanf(iter.Val(), "held:table:%d", &tableID); err == nil {
			held[tableID] = true
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return held, nil
}

// ReleaseGuards drops the guard keys for an already-evicted hold.  The
// expiry watcher calls this so a table becomes claimable immediately
// instead of waiting out the guards' own TTL skew.
func (r *HoldRepo) ReleaseGuards(ctx context.Context, userID, tableID uint64) {
	r.rdb.Del(ctx, tableGuardKey(tableID), userGuardKey(userID))
}
