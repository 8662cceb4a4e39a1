package domain

import (
	"time"
)

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// User 后台登录用户
type User struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Role         UserRole   `json:"role" gorm:"not null;default:user"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Board Monday.com 看板的本地缓存
type Board struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Kind        string    `json:"kind"`
	WorkspaceID string    `json:"workspaceId,omitempty"`
	ItemsCount  int       `json:"itemsCount"`
	SyncedAt    time.Time `json:"syncedAt"`
}

type SubscriberSource string

const (
	SourceMonday SubscriberSource = "monday"
	SourceManual SubscriberSource = "manual"
)

// Subscriber 看板订阅者。Source 为 monday 的记录由同步维护，只读。
type Subscriber struct {
	ID        string           `json:"id" gorm:"primaryKey"`
	BoardID   string           `json:"boardId" gorm:"index"`
	MondayID  string           `json:"mondayId,omitempty" gorm:"index"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone,omitempty"`
	Source    SubscriberSource `json:"source" gorm:"index"`
	SyncedAt  *time.Time       `json:"syncedAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ReadOnly 报告订阅者是否由 Monday 同步维护。
func (s Subscriber) ReadOnly() bool {
	return s.Source == SourceMonday
}

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
	ChannelSlack    Channel = "slack"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelTelegram, ChannelSlack:
		return true
	default:
		return false
	}
}

// Schedule 通信渠道的发送计划记录（只存储，不负责派发）
type Schedule struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name"`
	Channel   Channel    `json:"channel" gorm:"index"`
	BoardID   string     `json:"boardId,omitempty" gorm:"index"`
	CronExpr  string     `json:"cron"`
	Timezone  string     `json:"timezone"`
	Message   string     `json:"message,omitempty"`
	Enabled   bool       `json:"enabled"`
	NextRunAt *time.Time `json:"nextRunAt,omitempty"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// StoredFile 上传目录中的文件（不入库，直接来自文件系统）
type StoredFile struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	ModTime     time.Time `json:"modTime"`
}
