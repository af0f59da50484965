package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club_meetings/internal/domain"
	"club_meetings/pkg/logger"
)

// Тестовый сервер с состоянием встречи и append-only логом сообщений
type fakeServer struct {
	mu       sync.Mutex
	meeting  *domain.Meeting
	messages []*domain.MeetingMessage
	joins    int
	sent     []string
	auth     []string
}

func newFakeServer(meetingID uuid.UUID) *fakeServer {
	started := time.Now()
	return &fakeServer{
		meeting: &domain.Meeting{
			ID:           meetingID,
			ClubID:       uuid.New(),
			Title:        "Standup",
			Status:       domain.MeetingStatusActive,
			StartedAt:    &started,
			Participants: []uuid.UUID{},
		},
	}
}

func (f *fakeServer) addMessage(id int64, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, &domain.MeetingMessage{
		ID:          id,
		MeetingID:   f.meeting.ID,
		MessageType: domain.MessageTypeText,
		Content:     content,
		CreatedAt:   time.Now(),
	})
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	meetingPath := "/api/v1/meetings/" + f.meeting.ID.String()

	mux.HandleFunc(meetingPath, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(f.meeting)
	})
	mux.HandleFunc(meetingPath+"/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPost {
			var body struct {
				Content string `json:"content"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.sent = append(f.sent, body.Content)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(&domain.MeetingMessage{ID: int64(len(f.messages) + 1), Content: body.Content})
			return
		}
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		out := []*domain.MeetingMessage{}
		for _, m := range f.messages {
			if m.ID > after {
				out = append(out, m)
			}
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc(meetingPath+"/join", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.joins++
		json.NewEncoder(w).Encode(f.meeting)
	})
	mux.HandleFunc(meetingPath+"/start", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid state: cannot start meeting in status \"active\""})
	})
	return mux
}

func newPollerForTest(t *testing.T, server *httptest.Server, meetingID uuid.UUID, onChange func(Snapshot)) *Poller {
	t.Helper()
	return NewPoller(Options{
		BaseURL:         server.URL,
		Token:           "test-token",
		UserID:          uuid.New(),
		MeetingID:       meetingID,
		MeetingInterval: 20 * time.Millisecond,
		MessageInterval: 10 * time.Millisecond,
		OnChange:        onChange,
	}, logger.New("error"))
}

func TestPoller_Refresh(t *testing.T) {
	t.Run("снапшот сходится к состоянию сервера", func(t *testing.T) {
		meetingID := uuid.New()
		fake := newFakeServer(meetingID)
		fake.addMessage(1, "привет")
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		updates := make(chan Snapshot, 64)
		p := newPollerForTest(t, server, meetingID, func(s Snapshot) {
			select {
			case updates <- s:
			default:
			}
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Run(ctx)

		deadline := time.After(2 * time.Second)
		for {
			select {
			case s := <-updates:
				if s.Meeting != nil && len(s.Messages) == 1 {
					assert.Equal(t, "Standup", s.Meeting.Title)
					assert.Equal(t, "привет", s.Messages[0].Content)
					return
				}
			case <-deadline:
				t.Fatal("snapshot did not converge")
			}
		}
	})

	t.Run("курсор не перечитывает уже полученные сообщения", func(t *testing.T) {
		meetingID := uuid.New()
		fake := newFakeServer(meetingID)
		fake.addMessage(1, "первое")
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		p := newPollerForTest(t, server, meetingID, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Run(ctx)

		require.Eventually(t, func() bool {
			return len(p.Snapshot().Messages) == 1
		}, 2*time.Second, 10*time.Millisecond)

		fake.addMessage(2, "второе")

		require.Eventually(t, func() bool {
			return len(p.Snapshot().Messages) == 2
		}, 2*time.Second, 10*time.Millisecond)

		messages := p.Snapshot().Messages
		assert.Equal(t, "первое", messages[0].Content)
		assert.Equal(t, "второе", messages[1].Content)
	})

	t.Run("запросы уходят с токеном", func(t *testing.T) {
		meetingID := uuid.New()
		fake := newFakeServer(meetingID)
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		p := newPollerForTest(t, server, meetingID, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Run(ctx)

		require.Eventually(t, func() bool {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			return len(fake.auth) > 0
		}, 2*time.Second, 10*time.Millisecond)

		fake.mu.Lock()
		defer fake.mu.Unlock()
		assert.Equal(t, "Bearer test-token", fake.auth[0])
	})
}

func TestPoller_Commands(t *testing.T) {
	t.Run("join уходит на сервер", func(t *testing.T) {
		meetingID := uuid.New()
		fake := newFakeServer(meetingID)
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		p := newPollerForTest(t, server, meetingID, nil)

		require.NoError(t, p.Join(context.Background()))

		fake.mu.Lock()
		defer fake.mu.Unlock()
		assert.Equal(t, 1, fake.joins)
	})

	t.Run("отправка сообщения", func(t *testing.T) {
		meetingID := uuid.New()
		fake := newFakeServer(meetingID)
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		p := newPollerForTest(t, server, meetingID, nil)

		require.NoError(t, p.SendMessage(context.Background(), "всем привет"))

		fake.mu.Lock()
		defer fake.mu.Unlock()
		require.Len(t, fake.sent, 1)
		assert.Equal(t, "всем привет", fake.sent[0])
	})

	t.Run("ошибка сервера доносит текст", func(t *testing.T) {
		meetingID := uuid.New()
		fake := newFakeServer(meetingID)
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		p := newPollerForTest(t, server, meetingID, nil)

		err := p.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "409")
		assert.Contains(t, err.Error(), "invalid state")
	})
}

func TestVoiceCapture_Mute(t *testing.T) {
	t.Run("mute - только флаг, без захвата устройства", func(t *testing.T) {
		v := NewVoiceCapture(logger.New("error"))

		assert.False(t, v.Muted())
		v.SetMuted(true)
		assert.True(t, v.Muted())
		assert.False(t, v.Active())

		v.SetMuted(false)
		assert.False(t, v.Muted())
	})

	t.Run("stop без start безопасен", func(t *testing.T) {
		v := NewVoiceCapture(logger.New("error"))
		v.Stop()
		assert.False(t, v.Active())
	})
}
