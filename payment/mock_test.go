package payment

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*Session)
	return s, args.Error(1)
}

func (m *mockProvider) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*Session)
	return s, args.Error(1)
}

func (m *mockProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	args := m.Called(payload, signature)
	e, _ := args.Get(0).(*WebhookEvent)
	return e, args.Error(1)
}

func (m *mockProvider) Mode() string {
	return m.Called().String(0)
}
