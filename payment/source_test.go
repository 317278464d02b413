package payment

import (
	"context"
	"errors"
	"society_tickets/model"
	"society_tickets/reconcile"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionSourceUnpaidIsNotReady(t *testing.T) {
	provider := &mockProvider{}
	provider.On("RetrieveSession", mock.Anything, "cs_open").
		Return(&Session{ID: "cs_open", Status: "open"}, nil)

	_, err := NewSessionSource(provider).Purchase(context.Background(), "cs_open")
	require.ErrorIs(t, err, reconcile.ErrNotReady)
}

func TestSessionSourcePaid(t *testing.T) {
	provider := &mockProvider{}
	provider.On("RetrieveSession", mock.Anything, "cs_paid").Return(&Session{
		ID:          "cs_paid",
		Paid:        true,
		AmountTotal: 2000,
		Metadata:    map[string]string{"name": "Sagal", "email": "sagal@example.com", "quantity": "2", "eventId": "4"},
	}, nil)

	p, err := NewSessionSource(provider).Purchase(context.Background(), "cs_paid")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Quantity)
	assert.EqualValues(t, 4, p.EventID)
	provider.AssertExpectations(t)
}

func TestSessionSourcePassesProviderErrors(t *testing.T) {
	provider := &mockProvider{}
	provider.On("RetrieveSession", mock.Anything, "cs_missing").
		Return(nil, errors.Join(model.ErrNotFound, errors.New("no such session")))

	_, err := NewSessionSource(provider).Purchase(context.Background(), "cs_missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}
