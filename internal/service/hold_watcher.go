// Package service hosts background workers that sit between the
// stores and the push pipeline.  The hold watcher is the piece that
// makes Redis TTL eviction visible to clients: without it an expired
// hold would only be discovered on the next TTL query.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/queue"
	"github.com/trungdq/restaurant-booking/internal/repository"
)

// Publisher is the part of the queue publisher the watcher needs.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// WatchHoldExpiry subscribes to Redis keyspace expiry notifications
// and converts each evicted hold key into a table_hold_expired push
// event plus a reset_table_available signal.  Redis is the sole
// authority on expiry; clients treat the resulting push event as
// ground truth no matter what their local countdown shows.
//
// The redis server must run with notify-keyspace-events including
// "Ex"; EnableExpiryNotifications sets that at startup.  The function
// blocks until ctx is cancelled.
func WatchHoldExpiry(ctx context.Context, rdb *redis.Client, holds *repository.HoldRepo, pub Publisher) {
	channel := fmt.Sprintf("__keyevent@%d__:expired", rdb.Options().DB)
	for {
		if err := ctx.Err(); err != nil {
			return
		}
		sub := rdb.Subscribe(ctx, channel)
		ch := sub.Channel()
		log.Printf("hold-watcher: listening on %s", channel)

	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				userID, tableID, ok := model.ParseHoldKey(msg.Payload)
				if !ok {
					continue // some other expired key
				}
				// The guard keys share the hold's TTL but may lag by
				// a moment; drop them now so the table is claimable
				// immediately.
				holds.ReleaseGuards(ctx, userID, tableID)

				ev := queue.NewEvent(queue.TopicTableHoldExpired, queue.HoldExpiredPayload{
					TableID: tableID,
					UserID:  userID,
				})
				if err := pub.Publish(ctx, ev); err != nil {
					log.Printf("hold-watcher: publish expiry for %s failed: %v", msg.Payload, err)
				}
				_ = pub.Publish(ctx, queue.NewEvent(queue.TopicResetTableAvailable, queue.TablePayload{TableID: tableID}))
				log.Printf("hold-watcher: hold expired user=%d table=%d", userID, tableID)
			}
		}

		_ = sub.Close()
		log.Printf("hold-watcher: subscription dropped; resubscribing")
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return
		}
	}
}

// EnableExpiryNotifications turns on keyspace expiry events for the
// connected Redis server.  Failing is not fatal – the deployment may
// configure it in redis.conf – but it is logged loudly because hold
// expiry pushes silently stop working without it.
func EnableExpiryNotifications(ctx context.Context, rdb *redis.Client) {
	if err := rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Printf("hold-watcher: could not enable keyspace notifications: %v", err)
	}
}
