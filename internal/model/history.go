package model

import (
	"time"

	"gorm.io/gorm"
)

type SyncStatus string

const (
	StatusSuccess SyncStatus = "SUCCESS"
	StatusFailed  SyncStatus = "FAILED"
)

type History struct {
	gorm.Model
	Op         string     `gorm:"not null"`
	LocalPath  string     `gorm:"not null"`
	RemotePath string     `gorm:"not null"`
	Status     SyncStatus `gorm:"not null"`
	ErrMsg     string
	SyncedAt   time.Time `gorm:"not null"`
}

type PassRecord struct {
	gorm.Model
	Status     SyncStatus `gorm:"not null"`
	Uploaded   int        `gorm:"not null"`
	Downloaded int        `gorm:"not null"`
	Skipped    int        `gorm:"not null"`
	Failed     int        `gorm:"not null"`
	ErrMsg     string
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt time.Time `gorm:"not null"`
}
