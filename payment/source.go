package payment

import (
	"context"
	"fmt"
	"society_tickets/reconcile"
)

// SessionSource reads purchases back from the provider for the success
// page poller.
type SessionSource struct {
	provider Provider
}

func NewSessionSource(provider Provider) *SessionSource {
	return &SessionSource{provider: provider}
}

func (s *SessionSource) Purchase(ctx context.Context, sessionID string) (reconcile.Purchase, error) {
	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return reconcile.Purchase{}, err
	}
	if !session.Paid {
		return reconcile.Purchase{}, fmt.Errorf("session %s is %s: %w", sessionID, session.Status, reconcile.ErrNotReady)
	}
	return DecodePurchase(session)
}
