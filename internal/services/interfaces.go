package services

import (
	"context"

	"pasarumkm/internal/gateway"
)

// InvoiceGateway is the slice of the payment gateway client the services
// need. The concrete implementation lives in internal/gateway; tests inject
// doubles.
type InvoiceGateway interface {
	CreateInvoice(ctx context.Context, req gateway.InvoiceRequest) (*gateway.Invoice, error)
	VerifyCallbackToken(provided string) bool
}

// EventPublisher publishes order lifecycle events. The RabbitMQ client in
// pkg/rabbitmq satisfies it; publishing is always best-effort.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}
