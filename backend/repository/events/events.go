package events

import "boardhub/backend/domain"

// EventType 事件类型
type EventType string

const (
	// 看板事件
	EventBoardsSynced EventType = "boards.synced"

	// 订阅者事件
	EventSubscriberCreated EventType = "subscriber.created"
	EventSubscriberUpdated EventType = "subscriber.updated"
	EventSubscriberDeleted EventType = "subscriber.deleted"
	EventSubscribersSynced EventType = "subscribers.synced"

	// 计划事件
	EventScheduleCreated EventType = "schedule.created"
	EventScheduleUpdated EventType = "schedule.updated"
	EventScheduleDeleted EventType = "schedule.deleted"

	// 文件事件
	EventFileUploaded EventType = "file.uploaded"
	EventFileDeleted  EventType = "file.deleted"

	// 安全事件（路径逃逸等）
	EventAccessDenied EventType = "security.access_denied"

	// 用户事件
	EventUserCreated  EventType = "user.created"
	EventLoginFailed  EventType = "user.login_failed"
	EventLoginSuccess EventType = "user.login_succeeded"

	// 通配符事件（用于订阅所有事件）
	EventAll EventType = "*"
)

// Event 事件接口
type Event interface {
	Type() EventType
}

// BoardsEvent 看板同步事件
type BoardsEvent struct {
	EventType EventType
	Count     int
}

func (e BoardsEvent) Type() EventType { return e.EventType }

// SubscriberEvent 订阅者事件；批量同步时 SubscriberID 为空
type SubscriberEvent struct {
	EventType    EventType
	BoardID      string
	SubscriberID string
	Subscriber   domain.Subscriber
}

func (e SubscriberEvent) Type() EventType { return e.EventType }

// ScheduleEvent 计划事件
type ScheduleEvent struct {
	EventType  EventType
	ScheduleID string
	Schedule   domain.Schedule
}

func (e ScheduleEvent) Type() EventType { return e.EventType }

// FileEvent 文件事件
type FileEvent struct {
	EventType EventType
	File      domain.StoredFile
}

func (e FileEvent) Type() EventType { return e.EventType }

// SecurityEvent 安全事件
type SecurityEvent struct {
	EventType EventType
	Operation string
	Input     string
	Reason    string
}

func (e SecurityEvent) Type() EventType { return e.EventType }

// UserEvent 用户事件
type UserEvent struct {
	EventType EventType
	UserID    string
	Email     string
}

func (e UserEvent) Type() EventType { return e.EventType }
