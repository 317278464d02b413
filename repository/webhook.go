package repository

import (
	"context"
	"society_tickets/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// Record upserts a delivery. A redelivery of the same provider event bumps
// the attempt counter instead of adding a row.
func (r *WebhookRepository) Record(ctx context.Context, d *model.WebhookDelivery) error {
	if d.Attempts == 0 {
		d.Attempts = 1
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"attempts":   gorm.Expr("webhook_deliveries.attempts + 1"),
			"status":     d.Status,
			"updated_at": time.Now(),
		}),
	}).Create(d).Error
}

// Finish stores the outcome of processing a delivery.
func (r *WebhookRepository) Finish(ctx context.Context, provider, eventID, status string, procErr error) error {
	msg := ""
	if procErr != nil {
		msg = procErr.Error()
	}
	return r.db.WithContext(ctx).Model(&model.WebhookDelivery{}).
		Where("provider = ? AND provider_event_id = ?", provider, eventID).
		Updates(map[string]any{
			"status":           status,
			"processing_error": msg,
			"processed_at":     time.Now(),
		}).Error
}

func (r *WebhookRepository) Find(ctx context.Context, provider, eventID string) (*model.WebhookDelivery, error) {
	var d model.WebhookDelivery
	err := r.db.WithContext(ctx).Where("provider = ? AND provider_event_id = ?", provider, eventID).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}
