package amqp

import (
	"fmt"
	"strings"

	"github.com/rabbitmq/amqp091-go"

	"ledger/internal/core"
)

const contentType = "application/json"

// NewPublishing wraps a ledger event into a persistent AMQP message. The
// event id doubles as the message id so consumers can deduplicate.
func NewPublishing(e core.LedgerEvent) (amqp091.Publishing, error) {
	body, err := e.ToJSON()
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID,
		Type:         string(e.Kind),
		Timestamp:    e.Timestamp,
		Body:         body,
	}, nil
}

// EventFromDelivery decodes a message produced by NewPublishing.
func EventFromDelivery(d amqp091.Delivery) (core.LedgerEvent, error) {
	if d.ContentType != "" && d.ContentType != contentType {
		return core.LedgerEvent{}, fmt.Errorf("unexpected content type %q", d.ContentType)
	}
	e, err := core.LedgerEventFromJSON(d.Body)
	if err != nil {
		return core.LedgerEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return e, nil
}

// RoutingKey appends the event kind to prefix, e.g. "ledger.events.account.created".
func RoutingKey(prefix string, kind core.EventKind) string {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		return string(kind)
	}
	return prefix + "." + string(kind)
}
