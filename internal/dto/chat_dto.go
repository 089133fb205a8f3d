package dto

import (
	"time"

	"github.com/noah-isme/vincula-api/internal/models"
)

// MessageSendRequest is the payload posted by a chat participant.
type MessageSendRequest struct {
	Content string `json:"contenido" validate:"required,max=4000"`
}

// ChatResponse is the serialized chat channel.
type ChatResponse struct {
	ID             uint      `json:"chat_id"`
	RequestID      uint      `json:"solicitud_id"`
	User1Kind      string    `json:"usuario1_tipo"`
	User1ID        uint      `json:"usuario1_id"`
	User2Kind      string    `json:"usuario2_tipo"`
	User2ID        uint      `json:"usuario2_id"`
	MatchKind      string    `json:"tipo_match"`
	MatchID        uint      `json:"match_id"`
	Title          string    `json:"titulo_chat"`
	Active         bool      `json:"activo"`
	CreatedAt      time.Time `json:"fecha_creacion"`
	LastActivityAt time.Time `json:"ultima_actividad"`
	OtherUserName  *string   `json:"otro_usuario_nombre,omitempty"`
	UnreadMessages *int64    `json:"mensajes_no_leidos,omitempty"`
}

// ChatProvisionResponse reports the chat bound to a request.
type ChatProvisionResponse struct {
	ChatID uint `json:"chat_id"`
}

// MessageResponse is the serialized chat message.
type MessageResponse struct {
	ID         uint      `json:"mensaje_id"`
	ChatID     uint      `json:"chat_id"`
	SenderKind string    `json:"remitente_tipo"`
	SenderID   uint      `json:"remitente_id"`
	Content    string    `json:"contenido"`
	Read       bool      `json:"leido"`
	SentAt     time.Time `json:"fecha_envio"`
	SenderName *string   `json:"remitente_nombre,omitempty"`
}

// MessageCreatedResponse is returned after a message has been stored.
type MessageCreatedResponse struct {
	ID uint `json:"mensaje_id"`
}

// NewChatResponse converts a chat model into a DTO.
func NewChatResponse(model models.Chat) ChatResponse {
	return ChatResponse{
		ID:             model.ID,
		RequestID:      model.RequestID,
		User1Kind:      string(model.User1Kind),
		User1ID:        model.User1ID,
		User2Kind:      string(model.User2Kind),
		User2ID:        model.User2ID,
		MatchKind:      string(model.MatchKind),
		MatchID:        model.MatchID,
		Title:          model.Title,
		Active:         model.Active,
		CreatedAt:      model.CreatedAt,
		LastActivityAt: model.CreatedAt,
	}
}

// NewMessageResponse converts a message model into a DTO.
func NewMessageResponse(model models.Message) MessageResponse {
	return MessageResponse{
		ID:         model.ID,
		ChatID:     model.ChatID,
		SenderKind: string(model.SenderKind),
		SenderID:   model.SenderID,
		Content:    model.Content,
		Read:       model.IsRead,
		SentAt:     model.SentAt,
	}
}
