package service

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"club_meetings/pkg/logger"
	"club_meetings/pkg/metrics"
)

// Имена событий real-time канала
const (
	EventJoinMeeting    = "join_meeting"
	EventLeaveMeeting   = "leave_meeting"
	EventMeetingUpdate  = "meeting_update"
	EventReceiveMessage = "receive_message"
)

type Event struct {
	Name      string      `json:"event"`
	MeetingID *uuid.UUID  `json:"meeting_id,omitempty"`
	ClubID    *uuid.UUID  `json:"club_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// MeetingRoom возвращает идентификатор комнаты рассылки для встречи
func MeetingRoom(meetingID uuid.UUID) string {
	return fmt.Sprintf("meeting:%s", meetingID)
}

// ClubRoom возвращает идентификатор комнаты рассылки для клуба
func ClubRoom(clubID uuid.UUID) string {
	return fmt.Sprintf("club:%s", clubID)
}

// Notifier рассылает события lifecycle и сообщений подписчикам комнат.
// Доставка best-effort, at-most-once: отставший или отключившийся клиент
// теряет событие и догоняет состояние следующим poll-ом.
type Notifier interface {
	Subscribe(roomID, clientID string) <-chan Event
	Unsubscribe(roomID, clientID string)
	Publish(roomID string, event Event)
	Close()
}

// Буфер канала подписчика: события сверх буфера отбрасываются,
// блокировать publish из-за медленного клиента нельзя.
const subscriberBuffer = 16

type notifier struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]chan Event
	closed bool
	log    logger.Logger
}

func NewNotifier(log logger.Logger) Notifier {
	return &notifier{
		rooms: make(map[string]map[string]chan Event),
		log:   log,
	}
}

func (n *notifier) Subscribe(roomID, clientID string) <-chan Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	subscribers, ok := n.rooms[roomID]
	if !ok {
		subscribers = make(map[string]chan Event)
		n.rooms[roomID] = subscribers
	}

	// Повторная подписка того же клиента заменяет старый канал
	if old, ok := subscribers[clientID]; ok {
		close(old)
	}

	ch := make(chan Event, subscriberBuffer)
	subscribers[clientID] = ch
	metrics.SetNotifierSubscribers(n.totalSubscribersLocked())

	n.log.Debug("Subscribed to room", "room", roomID, "client", clientID)
	return ch
}

func (n *notifier) Unsubscribe(roomID, clientID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subscribers, ok := n.rooms[roomID]
	if !ok {
		return
	}

	ch, ok := subscribers[clientID]
	if !ok {
		return
	}

	close(ch)
	delete(subscribers, clientID)
	if len(subscribers) == 0 {
		delete(n.rooms, roomID)
	}
	metrics.SetNotifierSubscribers(n.totalSubscribersLocked())

	n.log.Debug("Unsubscribed from room", "room", roomID, "client", clientID)
}

func (n *notifier) Publish(roomID string, event Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}

	for clientID, ch := range n.rooms[roomID] {
		select {
		case ch <- event:
			metrics.RecordNotifierDelivery(event.Name, "delivered")
		default:
			// Клиент не успевает читать - событие пропускается,
			// клиент синхронизируется следующим poll-ом
			metrics.RecordNotifierDelivery(event.Name, "dropped")
			n.log.Debug("Dropped event for slow subscriber", "room", roomID, "client", clientID, "event", event.Name)
		}
	}
}

func (n *notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true

	for roomID, subscribers := range n.rooms {
		for _, ch := range subscribers {
			close(ch)
		}
		delete(n.rooms, roomID)
	}
	metrics.SetNotifierSubscribers(0)
}

func (n *notifier) totalSubscribersLocked() int {
	total := 0
	for _, subscribers := range n.rooms {
		total += len(subscribers)
	}
	return total
}
