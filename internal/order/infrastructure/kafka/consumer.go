package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ozkantan/lokma/internal/order/infrastructure/notify"
	"github.com/ozkantan/lokma/pkg/idempotency"
	"github.com/ozkantan/lokma/pkg/realtime"
	"github.com/ozkantan/lokma/pkg/tracing"
	"github.com/ozkantan/lokma/pkg/wshub"
)

type orderPlacedEvent struct {
	OrderID       string    `json:"orderId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	TotalAmount   float64   `json:"totalAmount"`
	Fulfillment   string    `json:"fulfillmentType"`
	CreatedAt     time.Time `json:"createdAt"`
}

type statusChangedEvent struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	Reason        string `json:"reason"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
}

// Consumer fans order events out to customer notifications and the vendor
// websocket stream. Notification failures never block the commit; the event
// is considered handled either way.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	sender notify.Sender
	hub    *wshub.Hub
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, sender notify.Sender, hub *wshub.Hub, idem *idempotency.Store) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		sender: sender,
		hub:    hub,
		idem:   idem,
		tracer: otel.Tracer("order-event-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		eventType := tracing.HeaderValue(msg.Headers, "event_type")
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderEvent")

		c.handle(msgCtx, eventType, msg.Value)

		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, eventType string, value []byte) {
	switch eventType {
	case "OrderPlaced":
		var event orderPlacedEvent
		if err := json.Unmarshal(value, &event); err != nil {
			c.log.Error("unmarshal order placed failed", "err", err)
			return
		}
		if err := c.sender.OrderPlaced(ctx, notify.OrderPlacedNote{
			OrderID:       event.OrderID,
			CustomerName:  event.CustomerName,
			CustomerEmail: event.CustomerEmail,
			TotalAmount:   event.TotalAmount,
			Fulfillment:   event.Fulfillment,
		}); err != nil {
			c.log.Error("order placed notification failed", "order_id", event.OrderID, "err", err)
		}
		if c.hub != nil {
			c.hub.Broadcast("order_placed", realtime.TableOrders, event)
		}
	case "OrderStatusChanged":
		var event statusChangedEvent
		if err := json.Unmarshal(value, &event); err != nil {
			c.log.Error("unmarshal status change failed", "err", err)
			return
		}
		if err := c.sender.StatusChanged(ctx, notify.StatusChangedNote{
			OrderID:       event.OrderID,
			Status:        event.Status,
			Reason:        event.Reason,
			CustomerName:  event.CustomerName,
			CustomerEmail: event.CustomerEmail,
		}); err != nil {
			c.log.Error("status change notification failed", "order_id", event.OrderID, "err", err)
		}
		if c.hub != nil {
			c.hub.Broadcast("order_status_changed", realtime.TableOrders, event)
		}
	default:
		c.log.Warn("unknown event type skipped", "event_type", eventType)
	}
}
