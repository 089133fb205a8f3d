package models

import (
	"sort"
	"time"
)

// MatchKind names the entity a request refers to.
type MatchKind string

const (
	MatchKindCapability MatchKind = "capacidad"
	MatchKindChallenge  MatchKind = "desafio"
)

// Valid reports whether the match kind is known.
func (k MatchKind) Valid() bool {
	return k == MatchKindCapability || k == MatchKindChallenge
}

// RequestStatus is the lifecycle state of a collaboration request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pendiente"
	RequestStatusAccepted RequestStatus = "aceptada"
	RequestStatusRejected RequestStatus = "rechazada"
)

// Terminal reports whether the status accepts no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

// CollaborationRequest is a directional ask to collaborate over a match.
type CollaborationRequest struct {
	ID            uint          `gorm:"primaryKey"`
	SenderKind    ProfileKind   `gorm:"size:16;not null;index:idx_request_sender,priority:1"`
	SenderID      uint          `gorm:"not null;index:idx_request_sender,priority:2"`
	RecipientKind ProfileKind   `gorm:"size:16;not null;index:idx_request_recipient,priority:1"`
	RecipientID   uint          `gorm:"not null;index:idx_request_recipient,priority:2"`
	MatchKind     MatchKind     `gorm:"size:16;not null"`
	MatchID       uint          `gorm:"not null"`
	Status        RequestStatus `gorm:"size:16;not null;default:pendiente;index"`
	Message       *string       `gorm:"type:text"`
	PairKey       string        `gorm:"size:64;not null;uniqueIndex"`
	CreatedAt     time.Time
	RespondedAt   *time.Time
}

// TableName pins the request table name.
func (CollaborationRequest) TableName() string {
	return "collaboration_requests"
}

// Sender returns the sending profile.
func (r CollaborationRequest) Sender() ProfileRef {
	return ProfileRef{Kind: r.SenderKind, ID: r.SenderID}
}

// Recipient returns the receiving profile.
func (r CollaborationRequest) Recipient() ProfileRef {
	return ProfileRef{Kind: r.RecipientKind, ID: r.RecipientID}
}

// Involves reports whether the profile is either party of the request.
func (r CollaborationRequest) Involves(profile ProfileRef) bool {
	return r.Sender().Equal(profile) || r.Recipient().Equal(profile)
}

// PairKeyFor builds the canonical key of an unordered profile pair.
func PairKeyFor(a, b ProfileRef) string {
	keys := []string{a.String(), b.String()}
	sort.Strings(keys)
	return keys[0] + "|" + keys[1]
}
