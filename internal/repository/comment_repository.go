package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"buildbid/internal/model"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Add appends one comment. Comments are never edited or reordered.
func (r *CommentRepository) Add(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// List returns the comments of an entity in the order they were added.
func (r *CommentRepository) List(ctx context.Context, entityType model.EntityType, entityID uuid.UUID) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at").
		Order("id").
		Find(&comments).Error
	return comments, err
}
