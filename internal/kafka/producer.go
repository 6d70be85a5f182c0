package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-marketplace/internal/models"
)

// Producer publishes domain events. A nil Producer is a valid no-op publisher
// so the service can run with Kafka disabled.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

func (p *Producer) Close() error {
	if p == nil || p.Writer == nil {
		return nil
	}
	return p.Writer.Close()
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	if p == nil || p.Writer == nil {
		return nil
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

func (p *Producer) PublishBookingCreated(booking models.Booking) error {
	return p.publish(TopicBookingCreated, booking.BookingID, booking)
}

func (p *Producer) PublishBookingStatus(booking models.Booking) error {
	topic := ""
	switch booking.Status {
	case models.BookingAccepted:
		topic = TopicBookingAccepted
	case models.BookingRejected:
		topic = TopicBookingRejected
	case models.BookingCancelled:
		topic = TopicBookingCancelled
	default:
		return nil
	}
	return p.publish(topic, booking.BookingID, booking)
}

func (p *Producer) PublishPaymentRecorded(payment models.Payment) error {
	return p.publish(TopicPaymentRecorded, payment.PaymentID, payment)
}

func (p *Producer) PublishTicketModerated(ticket models.Ticket) error {
	return p.publish(TopicTicketModerated, ticket.TicketID, ticket)
}

func (p *Producer) PublishVendorFlagged(user models.User) error {
	return p.publish(TopicVendorFlagged, user.Email, user)
}
