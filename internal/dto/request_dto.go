package dto

import (
	"time"

	"github.com/noah-isme/vincula-api/internal/models"
)

// RequestCreateRequest is the payload to send a collaboration request.
type RequestCreateRequest struct {
	RecipientKind string `json:"destinatario_tipo" validate:"required,oneof=unsa externo"`
	RecipientID   uint   `json:"destinatario_id" validate:"required,gt=0"`
	MatchKind     string `json:"tipo_match" validate:"required,oneof=capacidad desafio"`
	MatchID       uint   `json:"match_id" validate:"required,gt=0"`
	Message       string `json:"mensaje" validate:"omitempty,max=2000"`
}

// RequestRespondRequest is the payload used by a recipient to resolve a request.
type RequestRespondRequest struct {
	Status string `json:"estado" validate:"required,oneof=aceptada rechazada"`
}

// RequestMatchStatusQuery identifies the counterpart and match a UI card is showing.
type RequestMatchStatusQuery struct {
	OtherKind string `query:"otro_tipo" validate:"required,oneof=unsa externo"`
	OtherID   uint   `query:"otro_id" validate:"required,gt=0"`
	MatchKind string `query:"tipo_match" validate:"required,oneof=capacidad desafio"`
	MatchID   uint   `query:"match_id" validate:"required,gt=0"`
}

// RequestResponse is the serialized collaboration request.
type RequestResponse struct {
	ID            uint       `json:"solicitud_id"`
	SenderKind    string     `json:"remitente_tipo"`
	SenderID      uint       `json:"remitente_id"`
	RecipientKind string     `json:"destinatario_tipo"`
	RecipientID   uint       `json:"destinatario_id"`
	MatchKind     string     `json:"tipo_match"`
	MatchID       uint       `json:"match_id"`
	Status        string     `json:"estado"`
	Message       *string    `json:"mensaje"`
	CreatedAt     time.Time  `json:"fecha_creacion"`
	RespondedAt   *time.Time `json:"fecha_respuesta"`
	SenderName    *string    `json:"remitente_nombre,omitempty"`
	RecipientName *string    `json:"destinatario_nombre,omitempty"`
	MatchTitle    *string    `json:"match_titulo,omitempty"`
}

// RequestCreatedResponse is returned after a request has been stored.
type RequestCreatedResponse struct {
	ID uint `json:"solicitud_id"`
}

// RequestMatchStatusResponse classifies the caller's relation to an existing request.
type RequestMatchStatusResponse struct {
	Exists      bool             `json:"existe"`
	Request     *RequestResponse `json:"solicitud"`
	IsSender    bool             `json:"soyRemitente"`
	IsRecipient bool             `json:"soyDestinatario"`
}

// RequestRespondResponse reports the outcome of resolving a request.
// ChatID is nil when the request was rejected or chat provisioning failed.
type RequestRespondResponse struct {
	Status string `json:"estado"`
	ChatID *uint  `json:"chat_id"`
}

// CountResponse carries a badge counter.
type CountResponse struct {
	Total int64 `json:"total"`
}

// NewRequestResponse converts a model into a DTO.
func NewRequestResponse(model models.CollaborationRequest) RequestResponse {
	return RequestResponse{
		ID:            model.ID,
		SenderKind:    string(model.SenderKind),
		SenderID:      model.SenderID,
		RecipientKind: string(model.RecipientKind),
		RecipientID:   model.RecipientID,
		MatchKind:     string(model.MatchKind),
		MatchID:       model.MatchID,
		Status:        string(model.Status),
		Message:       model.Message,
		CreatedAt:     model.CreatedAt,
		RespondedAt:   model.RespondedAt,
	}
}
