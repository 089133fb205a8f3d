package dto

import (
	"time"

	"github.com/noah-isme/vincula-api/internal/models"
)

// CapabilityUpsertRequest creates or replaces a capability.
type CapabilityUpsertRequest struct {
	Description    string   `json:"descripcion_capacidad" validate:"required,min=3,max=5000"`
	ProblemsSolved string   `json:"problemas_que_resuelven" validate:"omitempty,max=5000"`
	ProjectTypes   string   `json:"tipos_proyectos" validate:"omitempty,max=5000"`
	Equipment      string   `json:"equipamiento" validate:"omitempty,max=5000"`
	InternalCode   string   `json:"clave_interna" validate:"omitempty,max=64"`
	Keywords       []string `json:"palabrasClave" validate:"omitempty,max=50,dive,max=128"`
}

// ChallengeUpsertRequest creates or replaces a challenge.
type ChallengeUpsertRequest struct {
	Title              string   `json:"titulo" validate:"required,min=3,max=255"`
	Description        string   `json:"descripcion" validate:"omitempty,max=5000"`
	Impact             string   `json:"impacto" validate:"omitempty,max=5000"`
	AttemptedSolutions string   `json:"soluciones_intentadas" validate:"omitempty,max=5000"`
	ImaginedSolution   string   `json:"solucion_imaginada" validate:"omitempty,max=5000"`
	Keywords           []string `json:"palabrasClave" validate:"omitempty,max=50,dive,max=128"`
}

// KeywordResponse is a serialized keyword.
type KeywordResponse struct {
	ID   uint   `json:"palabra_clave_id"`
	Word string `json:"palabra"`
}

// CapabilityResponse is a serialized capability with its keywords.
type CapabilityResponse struct {
	ID             uint              `json:"capacidad_id"`
	ResearcherID   uint              `json:"investigador_id"`
	Description    string            `json:"descripcion_capacidad"`
	ProblemsSolved string            `json:"problemas_que_resuelven"`
	ProjectTypes   string            `json:"tipos_proyectos"`
	Equipment      string            `json:"equipamiento"`
	InternalCode   string            `json:"clave_interna"`
	Keywords       []KeywordResponse `json:"palabras_clave"`
	CreatedAt      time.Time         `json:"fecha_creacion"`
	UpdatedAt      time.Time         `json:"fecha_actualizacion"`
}

// ChallengeResponse is a serialized challenge with its keywords.
type ChallengeResponse struct {
	ID                 uint              `json:"desafio_id"`
	ParticipantID      uint              `json:"participante_id"`
	Title              string            `json:"titulo"`
	Description        string            `json:"descripcion"`
	Impact             string            `json:"impacto"`
	AttemptedSolutions string            `json:"soluciones_intentadas"`
	ImaginedSolution   string            `json:"solucion_imaginada"`
	Keywords           []KeywordResponse `json:"palabras_clave"`
	CreatedAt          time.Time         `json:"fecha_creacion"`
	UpdatedAt          time.Time         `json:"fecha_actualizacion"`
}

// NewKeywordResponseSlice converts keywords to DTOs.
func NewKeywordResponseSlice(items []models.Keyword) []KeywordResponse {
	out := make([]KeywordResponse, 0, len(items))
	for _, item := range items {
		out = append(out, KeywordResponse{ID: item.ID, Word: item.Word})
	}
	return out
}

// NewCapabilityResponse converts a capability model to a DTO.
func NewCapabilityResponse(model models.Capability) CapabilityResponse {
	return CapabilityResponse{
		ID:             model.ID,
		ResearcherID:   model.ResearcherID,
		Description:    model.Description,
		ProblemsSolved: model.ProblemsSolved,
		ProjectTypes:   model.ProjectTypes,
		Equipment:      model.Equipment,
		InternalCode:   model.InternalCode,
		Keywords:       NewKeywordResponseSlice(model.Keywords),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewCapabilityResponseSlice converts capabilities to DTOs.
func NewCapabilityResponseSlice(items []models.Capability) []CapabilityResponse {
	out := make([]CapabilityResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewCapabilityResponse(item))
	}
	return out
}

// NewChallengeResponse converts a challenge model to a DTO.
func NewChallengeResponse(model models.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:                 model.ID,
		ParticipantID:      model.ParticipantID,
		Title:              model.Title,
		Description:        model.Description,
		Impact:             model.Impact,
		AttemptedSolutions: model.AttemptedSolutions,
		ImaginedSolution:   model.ImaginedSolution,
		Keywords:           NewKeywordResponseSlice(model.Keywords),
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

// NewChallengeResponseSlice converts challenges to DTOs.
func NewChallengeResponseSlice(items []models.Challenge) []ChallengeResponse {
	out := make([]ChallengeResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewChallengeResponse(item))
	}
	return out
}
