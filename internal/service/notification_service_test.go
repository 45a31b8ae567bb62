package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/config"
	"github.com/spec-kit/eventbright/internal/events"
)

type recordingPublisher struct {
	queues []string
}

func (p *recordingPublisher) Publish(_ context.Context, queue string, _ any) error {
	p.queues = append(p.queues, queue)
	return nil
}

func TestNotificationsGoThroughPublisher(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &recordingPublisher{}
	n := NewNotificationService(dispatcher, publisher, zap.NewNop(), config.AppConfig{})
	n.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTransactionCompleted}))
	assert.Equal(t, []string{"transaction.completed"}, publisher.queues)
}

func TestNotificationsDeliverInProcessWithoutBroker(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	n := NewNotificationService(dispatcher, nil, zap.NewNop(), config.AppConfig{BaseWebURL: "https://eventbright.test/"})
	var mails []Mail
	n.sent = func(m Mail) { mails = append(mails, m) }
	n.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventUserRegistered,
		UserID:  7,
		Payload: events.UserRegisteredPayload{Fullname: "Ana", Email: "ana@example.com", ReferralCode: "ABCDEFGHIJ"},
	})
	require.NoError(t, err)

	require.Len(t, mails, 1)
	assert.Equal(t, "ana@example.com", mails[0].To)
	assert.Equal(t, "Welcome to Eventbright!", mails[0].Subject)
	assert.Contains(t, mails[0].Body, "ABCDEFGHIJ")
	assert.Contains(t, mails[0].Body, "https://eventbright.test/login")
}

func TestHandleMessageReceipt(t *testing.T) {
	n := NewNotificationService(nil, nil, zap.NewNop(), config.AppConfig{})
	var mails []Mail
	n.sent = func(m Mail) { mails = append(mails, m) }

	body := []byte(`{"type":"transaction.completed","user_id":1,"payload":{"code":"abc","event_name":"Expo","email":"b@example.com","total_amount":"90000","points_used":"0","status":"completed"}}`)
	require.NoError(t, n.HandleMessage(context.Background(), "transaction.completed", body))
	require.Len(t, mails, 1)
	assert.Equal(t, "Your ticket for Expo", mails[0].Subject)
	assert.Contains(t, mails[0].Body, "Total: 90000.00")

	assert.Error(t, n.HandleMessage(context.Background(), "transaction.completed", []byte("{")))
	assert.NoError(t, n.HandleMessage(context.Background(), "other", []byte(`{"type":"other"}`)))
}
