package model

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage AI助教对话记录，只追加，不修改不删除
type ChatMessage struct {
	UUIDBase
	UserID  uint     `gorm:"index:idx_user_created;type:bigint unsigned;not null" json:"userId"`
	Role    ChatRole `gorm:"type:enum('user','assistant');not null" json:"role"`
	Content string   `gorm:"type:text;not null" json:"content"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
