package service

import (
	"sync"

	"github.com/google/uuid"
)

// MeetingLocks выдает мьютекс на каждую встречу. Все команды,
// меняющие статус, участников или лог сообщений одной встречи,
// выполняются под ее мьютексом: проверка и запись неразделимы.
type MeetingLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewMeetingLocks() *MeetingLocks {
	return &MeetingLocks{
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// Get возвращает мьютекс для встречи, создавая его при первом обращении.
// Мьютексы не освобождаются: встреч за время жизни процесса конечное
// число, а чистка под нагрузкой ломала бы исключительность.
func (ml *MeetingLocks) Get(meetingID uuid.UUID) *sync.Mutex {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	lock, ok := ml.locks[meetingID]
	if !ok {
		lock = &sync.Mutex{}
		ml.locks[meetingID] = lock
	}
	return lock
}
