// internal/models/session.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side login record. Deleting the row revokes every
// token that carries its id.
type Session struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CustomerID uint      `json:"customerId" gorm:"not null;index"`
	ExpiresAt  time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
