package events

import "context"

const (
	TopicOrders = "shop.orders"

	EventOrderPlaced    = "order.placed"
	EventOrderCancelled = "order.cancelled"
	EventOrderRefunded  = "order.refunded"
)

// 注文イベント。コンシューマ（メール通知など）向け。
type OrderEvent struct {
	Type        string `json:"type"`
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
	TotalPrice  string `json:"total_price"`
	Status      string `json:"status"`
	OccurredAt  string `json:"occurred_at"`
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, ev OrderEvent) error
	Close() error
}

// ブローカー未設定のとき・テスト用
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderEvent(ctx context.Context, ev OrderEvent) error { return nil }
func (NoopPublisher) Close() error                                               { return nil }
