package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/models"
)

// ChatSummary is a chat as seen by one of its participants.
type ChatSummary struct {
	models.Chat
	OtherUserName  *string
	UnreadMessages int64
	LastMessageAt  *time.Time
}

// MessageDetails is a message joined with its sender display name.
type MessageDetails struct {
	models.Message
	SenderName *string
}

// ChatRepository persists chats and their messages.
type ChatRepository interface {
	Transaction(ctx context.Context, fn func(repo ChatRepository) error) error
	FindRequest(ctx context.Context, requestID uint) (models.CollaborationRequest, error)
	MatchTitle(ctx context.Context, kind models.MatchKind, matchID uint) (string, error)
	FindByRequest(ctx context.Context, requestID uint) (models.Chat, error)
	Create(ctx context.Context, chat *models.Chat) error
	FindForParticipant(ctx context.Context, chatID uint, profile models.ProfileRef) (models.Chat, error)
	ListForProfile(ctx context.Context, profile models.ProfileRef) ([]ChatSummary, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, chatID uint) ([]MessageDetails, error)
	MarkRead(ctx context.Context, chatID uint, reader models.ProfileRef) (int64, error)
	CountUnread(ctx context.Context, profile models.ProfileRef) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a chat repository backed by GORM.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Transaction runs fn against a repository bound to a single database transaction.
func (r *chatRepository) Transaction(ctx context.Context, fn func(repo ChatRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&chatRepository{db: tx})
	})
}

func (r *chatRepository) FindRequest(ctx context.Context, requestID uint) (models.CollaborationRequest, error) {
	var request models.CollaborationRequest
	if err := r.db.WithContext(ctx).First(&request, requestID).Error; err != nil {
		return models.CollaborationRequest{}, err
	}
	return request, nil
}

// MatchTitle returns the display title of the matched entity, or "" when it no longer exists.
func (r *chatRepository) MatchTitle(ctx context.Context, kind models.MatchKind, matchID uint) (string, error) {
	var titles []string
	db := r.db.WithContext(ctx)

	var err error
	switch kind {
	case models.MatchKindCapability:
		err = db.Model(&models.Capability{}).Where("id = ?", matchID).Limit(1).Pluck("description", &titles).Error
	case models.MatchKindChallenge:
		err = db.Model(&models.Challenge{}).Where("id = ?", matchID).Limit(1).Pluck("title", &titles).Error
	}
	if err != nil || len(titles) == 0 {
		return "", err
	}
	return titles[0], nil
}

func (r *chatRepository) FindByRequest(ctx context.Context, requestID uint) (models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&chat).Error; err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

func (r *chatRepository) Create(ctx context.Context, chat *models.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

// FindForParticipant loads the chat only when profile is one of its two members.
func (r *chatRepository) FindForParticipant(ctx context.Context, chatID uint, profile models.ProfileRef) (models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Where("id = ?", chatID).
		Where(r.db.Where("user1_kind = ? AND user1_id = ?", profile.Kind, profile.ID).
			Or("user2_kind = ? AND user2_id = ?", profile.Kind, profile.ID)).
		First(&chat).Error
	if err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

const chatSummarySelect = `
SELECT c.*,
       CASE WHEN c.user1_kind = ? AND c.user1_id = ? THEN
                CASE WHEN c.user2_kind = ? THEN ir2.full_name ELSE ep2.full_name END
            ELSE
                CASE WHEN c.user1_kind = ? THEN ir1.full_name ELSE ep1.full_name END
       END AS other_user_name,
       (SELECT COUNT(*) FROM messages m
         WHERE m.chat_id = c.id AND m.is_read = ?
           AND NOT (m.sender_kind = ? AND m.sender_id = ?)) AS unread_messages,
       lm.sent_at AS last_message_at
FROM chats c
LEFT JOIN internal_researchers ir1 ON c.user1_kind = ? AND ir1.id = c.user1_id
LEFT JOIN external_participants ep1 ON c.user1_kind = ? AND ep1.id = c.user1_id
LEFT JOIN internal_researchers ir2 ON c.user2_kind = ? AND ir2.id = c.user2_id
LEFT JOIN external_participants ep2 ON c.user2_kind = ? AND ep2.id = c.user2_id
LEFT JOIN messages lm ON lm.id = (SELECT MAX(m2.id) FROM messages m2 WHERE m2.chat_id = c.id)
WHERE (c.user1_kind = ? AND c.user1_id = ?) OR (c.user2_kind = ? AND c.user2_id = ?)
ORDER BY COALESCE(lm.sent_at, c.created_at) DESC, c.id DESC`

func (r *chatRepository) ListForProfile(ctx context.Context, profile models.ProfileRef) ([]ChatSummary, error) {
	internal, external := models.ProfileKindInternal, models.ProfileKindExternal
	args := []interface{}{
		profile.Kind, profile.ID,
		internal,
		internal,
		false, profile.Kind, profile.ID,
		internal, external, internal, external,
		profile.Kind, profile.ID, profile.Kind, profile.ID,
	}

	var rows []ChatSummary
	if err := r.db.WithContext(ctx).Raw(chatSummarySelect, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

const messageDetailsSelect = `
SELECT m.*,
       CASE WHEN m.sender_kind = ? THEN ir.full_name ELSE ep.full_name END AS sender_name
FROM messages m
LEFT JOIN internal_researchers ir ON m.sender_kind = ? AND ir.id = m.sender_id
LEFT JOIN external_participants ep ON m.sender_kind = ? AND ep.id = m.sender_id
WHERE m.chat_id = ?
ORDER BY m.sent_at ASC, m.id ASC`

func (r *chatRepository) ListMessages(ctx context.Context, chatID uint) ([]MessageDetails, error) {
	internal, external := models.ProfileKindInternal, models.ProfileKindExternal

	var rows []MessageDetails
	err := r.db.WithContext(ctx).Raw(messageDetailsSelect, internal, internal, external, chatID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkRead flags every unread message in the chat that reader did not send.
func (r *chatRepository) MarkRead(ctx context.Context, chatID uint, reader models.ProfileRef) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_id = ? AND is_read = ?", chatID, false).
		Where("NOT (sender_kind = ? AND sender_id = ?)", reader.Kind, reader.ID).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *chatRepository) CountUnread(ctx context.Context, profile models.ProfileRef) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Joins("JOIN chats c ON c.id = messages.chat_id").
		Where("messages.is_read = ?", false).
		Where("NOT (messages.sender_kind = ? AND messages.sender_id = ?)", profile.Kind, profile.ID).
		Where("(c.user1_kind = ? AND c.user1_id = ?) OR (c.user2_kind = ? AND c.user2_id = ?)", profile.Kind, profile.ID, profile.Kind, profile.ID).
		Count(&total).Error
	return total, err
}
