package models

import "time"

// DefaultChatTitle is used when the matched entity has no display title.
const DefaultChatTitle = "Chat de colaboración"

// Chat is the channel opened between the two parties of an accepted request.
type Chat struct {
	ID        uint        `gorm:"primaryKey"`
	RequestID uint        `gorm:"not null;uniqueIndex"`
	User1Kind ProfileKind `gorm:"size:16;not null;index:idx_chat_user1,priority:1"`
	User1ID   uint        `gorm:"not null;index:idx_chat_user1,priority:2"`
	User2Kind ProfileKind `gorm:"size:16;not null;index:idx_chat_user2,priority:1"`
	User2ID   uint        `gorm:"not null;index:idx_chat_user2,priority:2"`
	MatchKind MatchKind   `gorm:"size:16;not null"`
	MatchID   uint        `gorm:"not null"`
	Title     string      `gorm:"size:255;not null"`
	Active    bool        `gorm:"not null;default:true"`
	CreatedAt time.Time
}

// TableName pins the chat table name.
func (Chat) TableName() string {
	return "chats"
}

// User1 returns the first participant (the request sender).
func (c Chat) User1() ProfileRef {
	return ProfileRef{Kind: c.User1Kind, ID: c.User1ID}
}

// User2 returns the second participant (the request recipient).
func (c Chat) User2() ProfileRef {
	return ProfileRef{Kind: c.User2Kind, ID: c.User2ID}
}

// HasParticipant reports whether the profile is one of the two chat members.
func (c Chat) HasParticipant(profile ProfileRef) bool {
	return c.User1().Equal(profile) || c.User2().Equal(profile)
}

// Message is an append-only chat entry.
type Message struct {
	ID         uint        `gorm:"primaryKey"`
	ChatID     uint        `gorm:"not null;index"`
	SenderKind ProfileKind `gorm:"size:16;not null"`
	SenderID   uint        `gorm:"not null"`
	Content    string      `gorm:"type:text;not null"`
	IsRead     bool        `gorm:"not null;default:false;index"`
	SentAt     time.Time   `gorm:"not null;index;autoCreateTime"`
}

// TableName pins the message table name.
func (Message) TableName() string {
	return "messages"
}

// Sender returns the sending profile.
func (m Message) Sender() ProfileRef {
	return ProfileRef{Kind: m.SenderKind, ID: m.SenderID}
}
