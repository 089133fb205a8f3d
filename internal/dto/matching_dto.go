package dto

import "time"

// CapabilityMatch is a capability sharing keywords with a challenge or a participant's challenges.
type CapabilityMatch struct {
	CapabilityID     uint    `json:"capacidad_id"`
	Description      string  `json:"descripcion_capacidad"`
	ResearcherID     uint    `json:"investigador_id"`
	ResearcherName   *string `json:"investigador_nombre"`
	MatchingKeywords string  `json:"palabras_coincidentes"`
	TotalMatches     int     `json:"total_coincidencias"`
}

// ChallengeMatch is a challenge sharing keywords with a capability or a researcher's capabilities.
type ChallengeMatch struct {
	ChallengeID      uint    `json:"desafio_id"`
	Title            string  `json:"titulo"`
	Description      *string `json:"descripcion"`
	ParticipantID    uint    `json:"participante_id"`
	ParticipantName  *string `json:"participante_nombre"`
	Organization     *string `json:"organizacion"`
	MatchingKeywords string  `json:"palabras_coincidentes"`
	TotalMatches     int     `json:"total_coincidencias"`
}

// MatchingStatusResponse describes the global matching switch.
type MatchingStatusResponse struct {
	Active      bool       `json:"activo"`
	ActivatedAt *time.Time `json:"fecha_activacion"`
}

// MatchingToggleRequest flips the global matching switch.
type MatchingToggleRequest struct {
	Active *bool `json:"activo" validate:"required"`
}

// MyMatchesResponse is returned to researchers and participants asking for their matches.
// Exactly one of Challenges or Capabilities is populated depending on Kind.
type MyMatchesResponse struct {
	Active       bool              `json:"activo"`
	Kind         string            `json:"tipo"`
	Challenges   []ChallengeMatch  `json:"desafios,omitempty"`
	Capabilities []CapabilityMatch `json:"capacidades,omitempty"`
}
