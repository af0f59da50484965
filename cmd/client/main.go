package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"club_meetings/internal/client"
	"club_meetings/internal/config"
	"club_meetings/pkg/logger"
)

// Интервал heartbeat-ов должен укладываться в окно свежести
// presence на сервере
const heartbeatInterval = 20 * time.Second

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "base URL of the meetings server")
		wsURL     = flag.String("ws", "", "websocket URL for event hints (optional, e.g. ws://localhost:8080)")
		token     = flag.String("token", "", "access token")
		meetingID = flag.String("meeting", "", "meeting ID")
		userID    = flag.String("user", "", "own user ID")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level)

	if *token == "" || *meetingID == "" || *userID == "" {
		log.Fatal("Flags -token, -meeting and -user are required")
	}
	mID, err := uuid.Parse(*meetingID)
	if err != nil {
		log.Fatal("Invalid meeting ID", "error", err)
	}
	uID, err := uuid.Parse(*userID)
	if err != nil {
		log.Fatal("Invalid user ID", "error", err)
	}

	poller := client.NewPoller(client.Options{
		BaseURL:         *serverURL,
		WSURL:           *wsURL,
		Token:           *token,
		UserID:          uID,
		MeetingID:       mID,
		MeetingInterval: cfg.Poller.MeetingInterval,
		MessageInterval: cfg.Poller.MessageInterval,
		OnChange: func(s client.Snapshot) {
			if s.Meeting == nil {
				return
			}
			log.Info("Meeting state",
				"title", s.Meeting.Title,
				"status", s.Meeting.Status,
				"participants", len(s.Meeting.Participants),
				"messages", len(s.Messages),
			)
		},
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go heartbeatLoop(ctx, poller, log)

	log.Info("Client started",
		"meeting_id", mID,
		"meeting_interval", cfg.Poller.MeetingInterval,
		"message_interval", cfg.Poller.MessageInterval,
	)

	if err := poller.Run(ctx); err != nil {
		log.Fatal("Poller stopped", "error", err)
	}
	log.Info("Client stopped")
}

func heartbeatLoop(ctx context.Context, poller *client.Poller, log logger.Logger) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := poller.Heartbeat(ctx); err != nil {
				log.Warn("Heartbeat failed", "error", err)
			}
		}
	}
}
