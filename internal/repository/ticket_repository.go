package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"buildbid/internal/model"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

type TicketFilter struct {
	ColumnID     *uuid.UUID
	ContractorID *uuid.UUID
	ClientID     *uuid.UUID
	ProjectID    *uuid.UUID
}

// Create appends the ticket to the end of its column.
func (r *TicketRepository) Create(ctx context.Context, ticket *model.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := nextPosition(tx, ticket.ColumnID)
		if err != nil {
			return err
		}
		ticket.Position = next
		return tx.Create(ticket).Error
	})
}

// GetByID retrieves a ticket by its ID
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	result := r.db.WithContext(ctx).First(&ticket, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, result.Error
	}
	return &ticket, nil
}

// List retrieves tickets ordered by column placement.
func (r *TicketRepository) List(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	tx := r.db.WithContext(ctx).Model(&model.Ticket{})
	if filter.ColumnID != nil {
		tx = tx.Where("column_id = ?", *filter.ColumnID)
	}
	if filter.ContractorID != nil {
		tx = tx.Where("contractor_id = ?", *filter.ContractorID)
	}
	if filter.ClientID != nil {
		tx = tx.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ProjectID != nil {
		tx = tx.Where("project_id = ?", *filter.ProjectID)
	}

	var tickets []model.Ticket
	err := tx.Order("column_id").Order("position").Find(&tickets).Error
	return tickets, err
}

// Update writes the editable fields. Column placement only changes through MoveTicket.
func (r *TicketRepository) Update(ctx context.Context, ticket *model.Ticket) error {
	result := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ?", ticket.ID).
		Updates(map[string]interface{}{
			"title":         ticket.Title,
			"description":   ticket.Description,
			"type":          ticket.Type,
			"task_type":     ticket.TaskType,
			"contractor_id": ticket.ContractorID,
			"client_id":     ticket.ClientID,
			"project_id":    ticket.ProjectID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// Delete removes a ticket and closes the gap it leaves in its column.
func (r *TicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ticket model.Ticket
		if err := tx.First(&ticket, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if err := tx.Where("entity_type = ? AND entity_id = ?", model.EntityTicket, id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Ticket{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&model.Ticket{}).
			Where("column_id = ? AND position > ?", ticket.ColumnID, ticket.Position).
			Update("position", gorm.Expr("position - 1")).Error
	})
}

// MoveTicket reassigns a ticket to another column. It lands at the end of the target column and the
// source column is compacted. Moving into the current column changes nothing.
func (r *TicketRepository) MoveTicket(ctx context.Context, ticketID, columnID uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, "id = ?", ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if ticket.ColumnID == columnID {
			return nil
		}

		var count int64
		if err := tx.Model(&model.Column{}).Where("id = ?", columnID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrColumnNotFound
		}

		oldColumnID := ticket.ColumnID
		oldPosition := ticket.Position

		// Decrement positions of tickets after this one in the old column
		if err := tx.Model(&model.Ticket{}).
			Where("column_id = ? AND position > ?", oldColumnID, oldPosition).
			Update("position", gorm.Expr("position - 1")).Error; err != nil {
			return err
		}

		next, err := nextPosition(tx, columnID)
		if err != nil {
			return err
		}
		ticket.ColumnID = columnID
		ticket.Position = next

		return tx.Model(&model.Ticket{}).Where("id = ?", ticket.ID).Updates(map[string]interface{}{
			"column_id": ticket.ColumnID,
			"position":  ticket.Position,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// StartTimer marks the ticket timer as running from now.
func (r *TicketRepository) StartTimer(ctx context.Context, id uuid.UUID, now time.Time) (*model.Ticket, error) {
	result := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ? AND timer_started_at IS NULL", id).
		Update("timer_started_at", now)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrTimerRunning
	}
	return r.GetByID(ctx, id)
}

// StopTimer adds the elapsed whole seconds to the tracked total and clears the running mark.
func (r *TicketRepository) StopTimer(ctx context.Context, id uuid.UUID, now time.Time) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if ticket.TimerStartedAt == nil {
			return ErrTimerNotRunning
		}

		elapsed := int64(now.Sub(*ticket.TimerStartedAt) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		ticket.TrackedSeconds += elapsed
		ticket.TimerStartedAt = nil

		result := tx.Model(&model.Ticket{}).
			Where("id = ? AND timer_started_at IS NOT NULL", id).
			Updates(map[string]interface{}{
				"tracked_seconds":  ticket.TrackedSeconds,
				"timer_started_at": nil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTimerNotRunning
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func nextPosition(tx *gorm.DB, columnID uuid.UUID) (int, error) {
	var maxPosition struct {
		Max int
	}
	err := tx.Model(&model.Ticket{}).
		Select("COALESCE(MAX(position), -1) as max").
		Where("column_id = ?", columnID).
		Scan(&maxPosition).Error
	return maxPosition.Max + 1, err
}
