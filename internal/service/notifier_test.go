package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club_meetings/pkg/logger"
)

func TestNotifier(t *testing.T) {
	meetingID := uuid.New()
	room := MeetingRoom(meetingID)

	t.Run("подписчик получает опубликованное событие", func(t *testing.T) {
		n := NewNotifier(logger.New("error"))
		defer n.Close()

		ch := n.Subscribe(room, "client-1")
		n.Publish(room, Event{Name: EventMeetingUpdate, MeetingID: &meetingID})

		select {
		case event := <-ch:
			assert.Equal(t, EventMeetingUpdate, event.Name)
			require.NotNil(t, event.MeetingID)
			assert.Equal(t, meetingID, *event.MeetingID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	})

	t.Run("событие уходит всем подписчикам комнаты", func(t *testing.T) {
		n := NewNotifier(logger.New("error"))
		defer n.Close()

		ch1 := n.Subscribe(room, "client-1")
		ch2 := n.Subscribe(room, "client-2")
		n.Publish(room, Event{Name: EventReceiveMessage})

		assert.Len(t, ch1, 1)
		assert.Len(t, ch2, 1)
	})

	t.Run("после unsubscribe события не приходят", func(t *testing.T) {
		n := NewNotifier(logger.New("error"))
		defer n.Close()

		ch := n.Subscribe(room, "client-1")
		n.Unsubscribe(room, "client-1")

		// Канал закрыт, publish в пустую комнату не паникует
		n.Publish(room, Event{Name: EventMeetingUpdate})

		_, ok := <-ch
		assert.False(t, ok)
	})

	t.Run("чужая комната событий не получает", func(t *testing.T) {
		n := NewNotifier(logger.New("error"))
		defer n.Close()

		other := n.Subscribe(ClubRoom(uuid.New()), "client-1")
		n.Publish(room, Event{Name: EventMeetingUpdate})

		assert.Len(t, other, 0)
	})

	t.Run("медленный подписчик теряет события без блокировки publish", func(t *testing.T) {
		n := NewNotifier(logger.New("error"))
		defer n.Close()

		ch := n.Subscribe(room, "slow")

		// Заполняем буфер с запасом: лишнее отбрасывается, publish не виснет
		done := make(chan struct{})
		go func() {
			for i := 0; i < subscriberBuffer*2; i++ {
				n.Publish(room, Event{Name: EventReceiveMessage})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("publish blocked on slow subscriber")
		}
		assert.Len(t, ch, subscriberBuffer)
	})

	t.Run("повторная подписка заменяет канал", func(t *testing.T) {
		n := NewNotifier(logger.New("error"))
		defer n.Close()

		old := n.Subscribe(room, "client-1")
		fresh := n.Subscribe(room, "client-1")

		_, ok := <-old
		assert.False(t, ok)

		n.Publish(room, Event{Name: EventMeetingUpdate})
		assert.Len(t, fresh, 1)
	})

	t.Run("close закрывает все каналы, повторный close безопасен", func(t *testing.T) {
		n := NewNotifier(logger.New("error"))

		ch := n.Subscribe(room, "client-1")
		n.Close()
		n.Close()

		_, ok := <-ch
		assert.False(t, ok)

		// Операции после close - no-op
		n.Publish(room, Event{Name: EventMeetingUpdate})
		dead := n.Subscribe(room, "client-2")
		_, ok = <-dead
		assert.False(t, ok)
	})
}

func TestMeetingLocks(t *testing.T) {
	locks := NewMeetingLocks()
	id := uuid.New()

	t.Run("одна встреча - один мьютекс", func(t *testing.T) {
		assert.Same(t, locks.Get(id), locks.Get(id))
	})

	t.Run("разные встречи - разные мьютексы", func(t *testing.T) {
		assert.NotSame(t, locks.Get(id), locks.Get(uuid.New()))
	})
}
