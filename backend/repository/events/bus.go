package events

import (
	"sync"

	"boardhub/backend/logging"
)

// Handler 事件处理器
type Handler func(event Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus 进程内事件总线。nil *Bus 上的发布是空操作。
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[EventType][]subscription
	// wg 跟踪异步处理器；closed 之后不再 Add
	wg     sync.WaitGroup
	closed bool
	logger logging.Logger
}

func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]subscription), logger: logging.OrDefault(nil)}
}

// SetLogger 处理器 panic 时使用的日志器
func (b *Bus) SetLogger(logger logging.Logger) {
	b.mu.Lock()
	b.logger = logging.OrDefault(logger)
	b.mu.Unlock()
}

// Subscribe 订阅指定类型的事件，返回取消函数
func (b *Bus) Subscribe(eventType EventType, handler Handler) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

// SubscribeAll 订阅所有事件
func (b *Bus) SubscribeAll(handler Handler) (cancel func()) {
	return b.Subscribe(EventAll, handler)
}

func (b *Bus) remove(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[eventType]
	for i, s := range list {
		if s.id == id {
			b.subs[eventType] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[eventType]) == 0 {
		delete(b.subs, eventType)
	}
}

// handlersFor 复制处理器列表，避免在锁内执行用户代码
func (b *Bus) handlersFor(eventType EventType) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handlersLocked(eventType)
}

func (b *Bus) handlersLocked(eventType EventType) []Handler {
	out := make([]Handler, 0, len(b.subs[eventType])+len(b.subs[EventAll]))
	for _, s := range b.subs[eventType] {
		out = append(out, s.handler)
	}
	for _, s := range b.subs[EventAll] {
		out = append(out, s.handler)
	}
	return out
}

// Publish 发布事件（异步执行所有处理器）；Close 之后丢弃
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := b.handlersLocked(event.Type())
	b.wg.Add(len(handlers))
	b.mu.RUnlock()

	for _, h := range handlers {
		go func(h Handler) {
			defer b.wg.Done()
			b.dispatch(h, event)
		}(h)
	}
}

// PublishSync 发布事件（同步执行所有处理器）
func (b *Bus) PublishSync(event Event) {
	if b == nil {
		return
	}
	for _, h := range b.handlersFor(event.Type()) {
		b.dispatch(h, event)
	}
}

// Close 停止接收异步事件，并等待已发布的处理器执行完毕（可重复调用）
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

// HasSubscribers 检查是否有订阅者
func (b *Bus) HasSubscribers(eventType EventType) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[eventType]) > 0 || len(b.subs[EventAll]) > 0
}

// dispatch 处理器 panic 不能拖垮发布方
func (b *Bus) dispatch(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.mu.RLock()
			logger := b.logger
			b.mu.RUnlock()
			logger.Error("event handler panicked", "event", event.Type(), "panic", r)
		}
	}()
	h(event)
}
