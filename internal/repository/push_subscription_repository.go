package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buildbid/internal/model"
)

type PushSubscriptionRepository struct {
	db *gorm.DB
}

func NewPushSubscriptionRepository(db *gorm.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert registers a token or refreshes it. A token re-registered by another user moves to that user.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "refreshed_at"}),
	}).Create(sub).Error
}

func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("refreshed_at DESC").Find(&subs).Error
	return subs, err
}

func (r *PushSubscriptionRepository) Delete(ctx context.Context, userID uuid.UUID, token string) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND token = ?", userID, token).Delete(&model.PushSubscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// DeleteTokens drops tokens the messaging provider reported as unregistered.
func (r *PushSubscriptionRepository) DeleteTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&model.PushSubscription{})
	return result.RowsAffected, result.Error
}

// DeleteStale removes tokens not refreshed since before.
func (r *PushSubscriptionRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("refreshed_at < ?", before).Delete(&model.PushSubscription{})
	return result.RowsAffected, result.Error
}
