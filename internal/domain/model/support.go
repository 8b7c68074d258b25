package model

import (
	"time"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
)

type SupportMessage struct {
	ID         int64
	UserID     int64
	Text       string
	Response   string
	Status     enums.SupportStatus
	CreatedAt  time.Time
	AnsweredAt *time.Time
}
