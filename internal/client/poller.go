package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"club_meetings/internal/domain"
	"club_meetings/pkg/logger"
)

// Snapshot - локально отрисовываемое состояние встречи
type Snapshot struct {
	Meeting  *domain.Meeting
	Messages []*domain.MeetingMessage
}

type Options struct {
	BaseURL string
	// WSURL включает канал event-подсказок, пустая строка - только polling
	WSURL           string
	Token           string
	UserID          uuid.UUID
	MeetingID       uuid.UUID
	MeetingInterval time.Duration
	MessageInterval time.Duration
	// OnChange вызывается после каждого успешного обновления снапшота
	OnChange func(Snapshot)
}

// Poller поддерживает локальную копию состояния встречи опросом REST
// на двух независимых таймерах, с досрочным обновлением по событию
// из real-time канала. Авторитетен всегда сервер: события не несут
// гарантий доставки, polling рано или поздно сходится к истине.
type Poller struct {
	opts       Options
	httpClient *http.Client
	capture    *VoiceCapture
	log        logger.Logger

	// hint будит оба цикла раньше таймера; буфер 1: достаточно
	// знать, что обновление нужно, число событий не важно
	hint chan struct{}

	mu            sync.Mutex
	meeting       *domain.Meeting
	messages      []*domain.MeetingMessage
	lastMessageID int64
}

func NewPoller(opts Options, log logger.Logger) *Poller {
	if opts.MeetingInterval <= 0 {
		opts.MeetingInterval = 5 * time.Second
	}
	if opts.MessageInterval <= 0 {
		opts.MessageInterval = 2 * time.Second
	}
	return &Poller{
		opts:       opts,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		capture:    NewVoiceCapture(log),
		log:        log,
		hint:       make(chan struct{}, 1),
	}
}

// Snapshot возвращает копию текущего локального состояния
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{Meeting: p.meeting, Messages: p.messages}
}

// Capture открывает доступ к локальному управлению mute
func (p *Poller) Capture() *VoiceCapture {
	return p.capture
}

// Hint запрашивает досрочное обновление, не дожидаясь таймеров
func (p *Poller) Hint() {
	select {
	case p.hint <- struct{}{}:
	default:
	}
}

// Run крутит циклы опроса до отмены контекста. Захваченное
// аудио-устройство освобождается на любом пути выхода.
func (p *Poller) Run(ctx context.Context) error {
	defer p.capture.Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return p.meetingLoop(ctx) })
	g.Go(func() error { return p.messageLoop(ctx) })
	if p.opts.WSURL != "" {
		g.Go(func() error { return p.eventLoop(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Poller) meetingLoop(ctx context.Context) error {
	ticker := time.NewTicker(p.opts.MeetingInterval)
	defer ticker.Stop()

	// Первый снапшот сразу, не дожидаясь таймера
	p.refreshMeeting(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.refreshMeeting(ctx)
		case <-p.hint:
			p.refreshMeeting(ctx)
			p.refreshMessages(ctx)
		}
	}
}

func (p *Poller) messageLoop(ctx context.Context) error {
	ticker := time.NewTicker(p.opts.MessageInterval)
	defer ticker.Stop()

	p.refreshMessages(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.refreshMessages(ctx)
		}
	}
}

// eventLoop слушает real-time канал и превращает события в подсказки.
// Любая ошибка - переподключение с паузой: канал только ускоряет
// обновление, без него polling продолжает работать.
func (p *Poller) eventLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		url := fmt.Sprintf("%s/ws/meetings/%s?token=%s", p.opts.WSURL, p.opts.MeetingID, p.opts.Token)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			p.log.Debug("Event channel unavailable", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		p.readEvents(ctx, conn)
		conn.Close()
	}
}

func (p *Poller) readEvents(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		p.Hint()
	}
}

func (p *Poller) refreshMeeting(ctx context.Context) {
	meeting := &domain.Meeting{}
	if err := p.get(ctx, fmt.Sprintf("/api/v1/meetings/%s", p.opts.MeetingID), meeting); err != nil {
		p.log.Warn("Failed to refresh meeting", "error", err)
		return
	}

	p.mu.Lock()
	p.meeting = meeting
	snapshot := Snapshot{Meeting: p.meeting, Messages: p.messages}
	p.mu.Unlock()

	p.reconcileCapture(meeting)

	if p.opts.OnChange != nil {
		p.opts.OnChange(snapshot)
	}
}

func (p *Poller) refreshMessages(ctx context.Context) {
	var incoming []*domain.MeetingMessage
	path := fmt.Sprintf("/api/v1/meetings/%s/messages?after=%d", p.opts.MeetingID, p.cursor())
	if err := p.get(ctx, path, &incoming); err != nil {
		p.log.Warn("Failed to refresh messages", "error", err)
		return
	}
	if len(incoming) == 0 {
		return
	}

	p.mu.Lock()
	p.messages = append(p.messages, incoming...)
	p.lastMessageID = incoming[len(incoming)-1].ID
	snapshot := Snapshot{Meeting: p.meeting, Messages: p.messages}
	p.mu.Unlock()

	if p.opts.OnChange != nil {
		p.opts.OnChange(snapshot)
	}
}

func (p *Poller) cursor() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastMessageID
}

// reconcileCapture сводит состояние аудио-захвата с состоянием
// встречи: устройство держится только пока мы участник идущей
// voice-only встречи
func (p *Poller) reconcileCapture(meeting *domain.Meeting) {
	if !meeting.IsVoiceOnly {
		return
	}

	inMeeting := meeting.Status == domain.MeetingStatusActive && meeting.HasParticipant(p.opts.UserID)
	if inMeeting && !p.capture.Active() {
		if err := p.capture.Start(); err != nil {
			p.log.Warn("Failed to acquire audio capture", "error", err)
		}
	}
	if !inMeeting && p.capture.Active() {
		p.capture.Stop()
	}
}

// Join вступает во встречу. Без оптимистичных обновлений: при
// ошибке локальное состояние не трогается, при успехе снапшот
// инвалидируется подсказкой.
func (p *Poller) Join(ctx context.Context) error {
	return p.command(ctx, "join")
}

func (p *Poller) Leave(ctx context.Context) error {
	return p.command(ctx, "leave")
}

func (p *Poller) Start(ctx context.Context) error {
	return p.command(ctx, "start")
}

func (p *Poller) End(ctx context.Context) error {
	return p.command(ctx, "end")
}

func (p *Poller) command(ctx context.Context, action string) error {
	path := fmt.Sprintf("/api/v1/meetings/%s/%s", p.opts.MeetingID, action)
	if err := p.post(ctx, path, nil, nil); err != nil {
		return err
	}
	p.Hint()
	return nil
}

// SendMessage отправляет сообщение в чат встречи
func (p *Poller) SendMessage(ctx context.Context, content string) error {
	body := map[string]string{"content": content}
	if err := p.post(ctx, fmt.Sprintf("/api/v1/meetings/%s/messages", p.opts.MeetingID), body, nil); err != nil {
		return err
	}
	p.Hint()
	return nil
}

// Heartbeat сообщает серверу о присутствии во встрече
func (p *Poller) Heartbeat(ctx context.Context) error {
	return p.post(ctx, fmt.Sprintf("/api/v1/meetings/%s/heartbeat", p.opts.MeetingID), nil, nil)
}

func (p *Poller) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return p.do(req, out)
}

func (p *Poller) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return p.do(req, out)
}

func (p *Poller) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+p.opts.Token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server rejected request (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server rejected request (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
