package network

import (
	"sync"
	"sync/atomic"

	"hla-gateway/internal/domain"
	"hla-gateway/pkg/api"
)

// Handler - внутрипроцессный получатель сообщений шлюза (хранилище акторов, журнал).
type Handler func(msg *domain.Message)

// Broadcaster доставляет сообщения шлюза в симуляцию: синхронно
// внутрипроцессным обработчикам и асинхронно наблюдателям потока.
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: ID наблюдателя -> Личный канал
	subscribers map[string]chan api.StreamMessage
	handlers    []Handler

	tick atomic.Uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan api.StreamMessage),
	}
}

// Handle добавляет внутрипроцессный обработчик. Обработчики вызываются в
// порядке добавления на горутине отправителя.
func (b *Broadcaster) Handle(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// SetTick запоминает номер тика, который попадёт в кадры потока.
func (b *Broadcaster) SetTick(tick uint64) { b.tick.Store(tick) }

// SendMessage реализует диспетчер шлюза.
func (b *Broadcaster) SendMessage(msg *domain.Message) {
	if msg == nil {
		return
	}
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, h := range handlers {
		h(msg)
	}
	b.Broadcast(Frame(msg, b.tick.Load()))
}

// Register создает личный канал для наблюдателя
func (b *Broadcaster) Register(id string) chan api.StreamMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Если канал был, закрываем
	if old, ok := b.subscribers[id]; ok {
		close(old)
	}

	ch := make(chan api.StreamMessage, 100)
	b.subscribers[id] = ch
	return ch
}

// Unregister удаляет подписчика
func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// SendTo отправляет сообщение конкретному наблюдателю (Unicast)
func (b *Broadcaster) SendTo(id string, msg api.StreamMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ch, ok := b.subscribers[id]; ok {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Broadcast отправляет всем наблюдателям. Переполненный канал пропускает кадр.
func (b *Broadcaster) Broadcast(msg api.StreamMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// HasSubscriber проверяет, подключён ли наблюдатель.
func (b *Broadcaster) HasSubscriber(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[id]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
