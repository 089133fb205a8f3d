package models

import (
	"fmt"
	"strings"
	"time"
)

// ProfileKind distinguishes the two profile tables. Ids are only unique within a kind.
type ProfileKind string

const (
	// ProfileKindInternal identifies a university researcher profile.
	ProfileKindInternal ProfileKind = "unsa"
	// ProfileKindExternal identifies an external participant profile.
	ProfileKindExternal ProfileKind = "externo"
)

// Valid reports whether the kind is one of the known profile kinds.
func (k ProfileKind) Valid() bool {
	return k == ProfileKindInternal || k == ProfileKindExternal
}

// ProfileKindFromRole maps an account role to the profile kind it owns.
func ProfileKindFromRole(role string) (ProfileKind, bool) {
	switch ProfileKind(strings.ToLower(strings.TrimSpace(role))) {
	case ProfileKindInternal:
		return ProfileKindInternal, true
	case ProfileKindExternal:
		return ProfileKindExternal, true
	default:
		return "", false
	}
}

// ProfileRef is the (kind, id) pair used wherever a profile is referenced.
type ProfileRef struct {
	Kind ProfileKind `json:"tipo"`
	ID   uint        `json:"id"`
}

// Equal reports whether both references point to the same profile.
func (p ProfileRef) Equal(other ProfileRef) bool {
	return p.Kind == other.Kind && p.ID == other.ID
}

// IsZero reports whether the reference is unset.
func (p ProfileRef) IsZero() bool {
	return p.Kind == "" && p.ID == 0
}

func (p ProfileRef) String() string {
	return fmt.Sprintf("%s:%d", p.Kind, p.ID)
}

// Placeholder values written into auto-provisioned profiles.
const (
	PlaceholderProfileName = "Perfil pendiente"
	PlaceholderProfileText = "Por completar"
)

// InternalResearcher is a university researcher who publishes capabilities.
type InternalResearcher struct {
	ID           uint      `gorm:"primaryKey" json:"investigador_id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"usuario_id"`
	FullName     string    `gorm:"size:255;not null" json:"nombres_apellidos"`
	Position     string    `gorm:"size:255" json:"cargo"`
	AcademicUnit string    `gorm:"size:255" json:"unidad_academica"`
	CreatedAt    time.Time `json:"fecha_creacion"`
	UpdatedAt    time.Time `json:"fecha_actualizacion"`
}

// TableName pins the table used by raw matching queries.
func (InternalResearcher) TableName() string {
	return "internal_researchers"
}

// Ref returns the profile reference of the researcher.
func (r InternalResearcher) Ref() ProfileRef {
	return ProfileRef{Kind: ProfileKindInternal, ID: r.ID}
}

// ExternalParticipant is an organisation member who publishes challenges.
type ExternalParticipant struct {
	ID           uint      `gorm:"primaryKey" json:"participante_id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"usuario_id"`
	FullName     string    `gorm:"size:255;not null" json:"nombres_apellidos"`
	Position     string    `gorm:"size:255" json:"cargo"`
	Organization string    `gorm:"size:255" json:"organizacion"`
	CreatedAt    time.Time `json:"fecha_creacion"`
	UpdatedAt    time.Time `json:"fecha_actualizacion"`
}

// TableName pins the table used by raw matching queries.
func (ExternalParticipant) TableName() string {
	return "external_participants"
}

// Ref returns the profile reference of the participant.
func (p ExternalParticipant) Ref() ProfileRef {
	return ProfileRef{Kind: ProfileKindExternal, ID: p.ID}
}
