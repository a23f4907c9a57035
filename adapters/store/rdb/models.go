package rdb

import (
	"encoding/json"
	"time"
)

// ProviderRecord persistence model
type ProviderRecord struct {
	ID        string    `gorm:"primaryKey;type:text;not null"`
	Name      string    `gorm:"type:text;not null;uniqueIndex"`
	Driver    string    `gorm:"type:text;not null"`
	Settings  string    `gorm:"type:text"` // JSON encoded map[string]string
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (ProviderRecord) TableName() string { return "providers" }

// ControllerRecord persistence model
type ControllerRecord struct {
	ID         string    `gorm:"primaryKey;type:text;not null"`
	Name       string    `gorm:"type:text;not null;uniqueIndex"`
	ProviderID string    `gorm:"type:text;not null;index"` // references Provider
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (ControllerRecord) TableName() string { return "controllers" }

// WorkerGroupRecord persistence model
type WorkerGroupRecord struct {
	ID           string    `gorm:"primaryKey;type:text;not null"`
	Name         string    `gorm:"type:text;not null;uniqueIndex"`
	ProviderID   string    `gorm:"type:text;not null;index"` // references Provider
	ControllerID string    `gorm:"type:text;not null;index"` // references Controller
	DesiredCount int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (WorkerGroupRecord) TableName() string { return "worker_groups" }

// InstanceRecord persistence model. Exactly one of ControllerID and
// WorkerGroupID is non-empty.
type InstanceRecord struct {
	ID                 string    `gorm:"primaryKey;type:text;not null"`
	ProviderID         string    `gorm:"type:text;not null;index"`
	ProviderInstanceID string    `gorm:"type:text;not null"`
	IPAddress          string    `gorm:"type:text"`
	ControllerID       string    `gorm:"type:text;index"`
	WorkerGroupID      string    `gorm:"type:text;index"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (InstanceRecord) TableName() string { return "instances" }

func encodeSettings(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeSettings(s string) map[string]string {
	if s == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}
