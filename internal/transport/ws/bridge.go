package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const bridgePattern = "room:*"

// Bridge веерит data-кадры между инстансами relay через Redis pub/sub.
// Каждый инстанс публикует исходящие кадры в канал room:<id> и подписан
// на room:*; свои же сообщения отфильтровываются по origin.
type Bridge struct {
	rdb        *redis.Client
	hub        *Hub
	instanceID string
}

type bridgeEnvelope struct {
	Origin string  `json:"origin"`
	RoomID string  `json:"room_id"`
	Msg    Message `json:"msg"`
}

func NewBridge(rdb *redis.Client, hub *Hub, instanceID string) *Bridge {
	b := &Bridge{rdb: rdb, hub: hub, instanceID: instanceID}
	hub.SetBridge(b.forward)
	return b
}

func (b *Bridge) forward(roomID string, msg Message) {
	env := bridgeEnvelope{Origin: b.instanceID, RoomID: roomID, Msg: msg}
	payload, err := json.Marshal(env)
	if err != nil {
		slog.Error("bridge marshal failed", "room", roomID, "err", err)
		return
	}
	if err := b.rdb.Publish(context.Background(), "room:"+roomID, payload).Err(); err != nil {
		slog.Warn("bridge publish failed", "room", roomID, "err", err)
	}
}

// Run читает кадры других инстансов до отмены контекста.
func (b *Bridge) Run(ctx context.Context) error {
	pubsub := b.rdb.PSubscribe(ctx, bridgePattern)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var env bridgeEnvelope
			if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
				slog.Warn("bridge drop malformed frame", "err", err)
				continue
			}
			if env.Origin == b.instanceID {
				continue
			}
			reliable := true
			if p, ok := env.Msg.Payload.(map[string]interface{}); ok {
				if r, ok := p["reliable"].(bool); ok {
					reliable = r
				}
			}
			b.hub.Broadcast(env.RoomID, env.Msg, "", reliable)
		}
	}
}
