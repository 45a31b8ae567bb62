package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/config"
	"github.com/spec-kit/eventbright/internal/events"
	"github.com/spec-kit/eventbright/internal/queue"
)

// Mail is an outbound message handed to the mailer.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// NotificationService forwards domain events to the broker and turns
// consumed messages into mail.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  queue.Publisher
	logger     *zap.Logger
	cfg        config.AppConfig
	sent       func(Mail)
}

// NewNotificationService creates the service. A nil publisher delivers
// messages in-process instead of through the broker.
func NewNotificationService(dispatcher events.Dispatcher, publisher queue.Publisher, logger *zap.Logger, cfg config.AppConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// Queues lists the broker queues this service produces and consumes.
func (n *NotificationService) Queues() []string {
	return []string{
		string(events.EventUserRegistered),
		string(events.EventTransactionCompleted),
		string(events.EventPaymentSubmitted),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, name := range n.Queues() {
		n.dispatcher.Subscribe(events.EventType(name), n.forward)
	}
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.publisher != nil {
		return n.publisher.Publish(ctx, string(event.Type), event)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.HandleMessage(ctx, string(event.Type), body)
}

type envelope struct {
	Type    events.EventType `json:"type"`
	UserID  int64            `json:"user_id"`
	Payload json.RawMessage  `json:"payload"`
}

// HandleMessage renders a consumed message as mail and hands it off.
func (n *NotificationService) HandleMessage(_ context.Context, queueName string, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode %s message: %w", queueName, err)
	}

	var mail Mail
	switch env.Type {
	case events.EventUserRegistered:
		var payload events.UserRegisteredPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("decode registration payload: %w", err)
		}
		mail = n.welcomeMail(payload)
	case events.EventTransactionCompleted, events.EventPaymentSubmitted:
		var payload events.TransactionPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("decode transaction payload: %w", err)
		}
		mail = receiptMail(env.Type, payload)
	default:
		n.logger.Warn("ignoring message of unknown type", zap.String("queue", queueName), zap.String("type", string(env.Type)))
		return nil
	}

	n.deliver(mail)
	return nil
}

func (n *NotificationService) welcomeMail(p events.UserRegisteredPayload) Mail {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nThank you for registering with Eventbright.\n", p.Fullname)
	fmt.Fprintf(&b, "Share your referral code %s with friends to earn points.\n", p.ReferralCode)
	fmt.Fprintf(&b, "Sign in at %s/login\n", strings.TrimRight(n.cfg.BaseWebURL, "/"))
	return Mail{To: p.Email, Subject: "Welcome to Eventbright!", Body: b.String()}
}

func receiptMail(t events.EventType, p events.TransactionPayload) Mail {
	subject := fmt.Sprintf("Your ticket for %s", p.EventName)
	if t == events.EventPaymentSubmitted {
		subject = fmt.Sprintf("Payment received for %s", p.EventName)
	}
	body := fmt.Sprintf("Transaction %s\nStatus: %s\nTotal: %s\nPoints used: %s\n",
		p.Code, p.Status, p.TotalAmount.StringFixed(2), p.PointsUsed.String())
	return Mail{To: p.Email, Subject: subject, Body: body}
}

func (n *NotificationService) deliver(mail Mail) {
	n.logger.Info("outbound mail",
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject))
	if n.sent != nil {
		n.sent(mail)
	}
}
