package models

import "time"

// MatchingStateID is the primary key of the singleton matching state row.
const MatchingStateID uint = 1

// MatchingState is the process-wide switch gating match queries.
type MatchingState struct {
	ID          uint       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Active      bool       `gorm:"not null;default:false" json:"activo"`
	ActivatedAt *time.Time `json:"fecha_activacion"`
	UpdatedAt   time.Time  `json:"fecha_actualizacion"`
}

// TableName pins the singleton table name.
func (MatchingState) TableName() string {
	return "matching_state"
}
