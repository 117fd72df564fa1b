package repository

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrColumnNotFound       = errors.New("column not found")
	ErrColumnNotEmpty       = errors.New("column still has tickets")
	ErrNoColumns            = errors.New("no columns exist yet")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTimerRunning         = errors.New("timer already running")
	ErrTimerNotRunning      = errors.New("timer is not running")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSubscriptionNotFound = errors.New("push subscription not found")
)
