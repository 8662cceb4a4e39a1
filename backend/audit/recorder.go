package audit

import (
	"boardhub/backend/logging"
	"boardhub/backend/repository/events"
)

// Recorder 把领域事件写入日志；安全事件使用 warn 级别。
type Recorder struct {
	logger logging.Logger
}

func NewRecorder(logger logging.Logger) *Recorder {
	return &Recorder{logger: logging.OrDefault(logger).WithPrefix("audit")}
}

// SubscribeEvents 订阅事件总线的全部事件
func (r *Recorder) SubscribeEvents(bus *events.Bus) {
	if bus == nil {
		return
	}
	bus.SubscribeAll(r.Record)
}

func (r *Recorder) Record(event events.Event) {
	switch e := event.(type) {
	case events.SecurityEvent:
		r.logger.Warn("access denied", "op", e.Operation, "input", e.Input, "reason", e.Reason)
	case events.UserEvent:
		if e.EventType == events.EventLoginFailed {
			r.logger.Warn("login failed", "email", e.Email)
			return
		}
		r.logger.Info(string(e.EventType), "user", e.UserID, "email", e.Email)
	case events.FileEvent:
		r.logger.Info(string(e.EventType), "file", e.File.Name, "size", e.File.Size)
	case events.SubscriberEvent:
		r.logger.Debug(string(e.EventType), "board", e.BoardID, "subscriber", e.SubscriberID)
	case events.ScheduleEvent:
		r.logger.Info(string(e.EventType), "schedule", e.ScheduleID)
	case events.BoardsEvent:
		r.logger.Debug(string(e.EventType), "count", e.Count)
	default:
		r.logger.Debug(string(event.Type()))
	}
}
