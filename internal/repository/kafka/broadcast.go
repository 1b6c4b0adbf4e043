package kafka

import (
	"context"

	"github.com/uptimer-dev/uptimer/internal/domain/broadcast"
	"github.com/uptimer-dev/uptimer/internal/orchestrator"
)

var _ broadcast.Publisher = (*BroadcastImpl)(nil)

// BroadcastImpl fans core events out through kafka. Broadcast topics map
// 1:1 onto kafka topics; subscribed real-time transports consume them
// downstream.
type BroadcastImpl struct {
	p *Producer
}

func NewBroadcast(p *Producer) *BroadcastImpl { return &BroadcastImpl{p: p} }

func (b *BroadcastImpl) Publish(ctx context.Context, topic string, payload any) error {
	var key []byte
	if upd, ok := payload.(orchestrator.MonitorsUpdated); ok {
		key = KeyFromInt64(upd.UserID)
	}
	return b.p.PublishJSON(ctx, topic, key, payload)
}
