// Package realtime pushes check-in activity to door scanners and the admin
// dashboard.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"society_tickets/constants"
	"society_tickets/model"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckinEvent is the message published for each check-in change.
type CheckinEvent struct {
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	EventID          uint      `json:"eventId"`
	CheckedIn        bool      `json:"checkedIn"`
	AlreadyCheckedIn bool      `json:"alreadyCheckedIn"`
	At               time.Time `json:"at"`
}

func NewCheckinEvent(res model.CheckinResult, at time.Time) CheckinEvent {
	return CheckinEvent{
		Code:             res.Attendee.Code,
		Name:             res.Attendee.Name,
		EventID:          res.Attendee.EventID,
		CheckedIn:        res.CheckedIn,
		AlreadyCheckedIn: res.AlreadyCheckedIn,
		At:               at.UTC(),
	}
}

type Publisher interface {
	PublishCheckin(ctx context.Context, ev CheckinEvent) error
}

// RedisPublisher fans check-ins out through a Redis channel so every API
// instance can forward them to its own websocket clients.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: constants.CHECKIN_CHANNEL}
}

func (p *RedisPublisher) PublishCheckin(ctx context.Context, ev CheckinEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("publish checkin %s: %w", ev.Code, err)
	}
	return nil
}

// LocalPublisher delivers straight to this process's hub. It is used when
// Redis is not configured.
type LocalPublisher struct {
	hub *Hub
}

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) PublishCheckin(_ context.Context, ev CheckinEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	p.hub.Broadcast(payload)
	return nil
}
