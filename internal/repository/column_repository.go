package repository

import (
	"context"
	"errors"

	"buildbid/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ColumnRepository struct {
	db *gorm.DB
}

func NewColumnRepository(db *gorm.DB) *ColumnRepository {
	return &ColumnRepository{db: db}
}

func (r *ColumnRepository) Create(ctx context.Context, column *model.Column) error {
	return r.db.WithContext(ctx).Create(column).Error
}

func (r *ColumnRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Column, error) {
	var column model.Column
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&column).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, err
	}
	return &column, nil
}

func (r *ColumnRepository) List(ctx context.Context) ([]model.Column, error) {
	var columns []model.Column
	err := r.db.WithContext(ctx).Order("position").Order("id").Find(&columns).Error
	return columns, err
}

// First returns the default column for new tickets.
func (r *ColumnRepository) First(ctx context.Context) (*model.Column, error) {
	var column model.Column
	if err := r.db.WithContext(ctx).Order("position").Order("id").First(&column).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoColumns
		}
		return nil, err
	}
	return &column, nil
}

func (r *ColumnRepository) Update(ctx context.Context, column *model.Column) error {
	result := r.db.WithContext(ctx).Model(&model.Column{}).
		Where("id = ?", column.ID).
		Updates(map[string]interface{}{"title": column.Title, "position": column.Position})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrColumnNotFound
	}
	return nil
}

// Delete removes an empty column. Tickets must be moved out first so none is left without a column.
func (r *ColumnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Ticket{}).Where("column_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrColumnNotEmpty
		}

		result := tx.Delete(&model.Column{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrColumnNotFound
		}
		return nil
	})
}

func (r *ColumnRepository) GetMaxPosition(ctx context.Context) (int, error) {
	var maxPosition struct {
		Max int
	}
	err := r.db.WithContext(ctx).Model(&model.Column{}).
		Select("COALESCE(MAX(position), 0) as max").
		Scan(&maxPosition).Error

	return maxPosition.Max, err
}

func (r *ColumnRepository) ReorderColumns(ctx context.Context, columns []model.Column) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, column := range columns {
			result := tx.Model(&model.Column{}).Where("id = ?", column.ID).Update("position", column.Position)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrColumnNotFound
			}
		}
		return nil
	})
}
