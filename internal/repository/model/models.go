package model

import "time"

type Meeting struct {
	ID        string     `gorm:"size:36;not null;uniqueIndex"`
	RoomID    string     `gorm:"size:64;primaryKey"`
	HostID    string     `gorm:"size:64;not null"`
	Status    string     `gorm:"size:32;not null"`
	CreatedAt time.Time  `gorm:"not null"`
	EndedAt   *time.Time `gorm:"index"`
	ExpiresAt *time.Time `gorm:"index"`
}
