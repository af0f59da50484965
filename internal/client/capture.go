package client

import (
	"fmt"
	"sync"

	"github.com/pion/mediadevices"

	"club_meetings/pkg/logger"
)

// VoiceCapture - локальный захват микрофона для voice-only встреч.
// Звук никуда не передается: в системе нет серверного аудио-тракта,
// захват и mute работают как локальный индикатор присутствия.
type VoiceCapture struct {
	mu     sync.Mutex
	stream mediadevices.MediaStream
	muted  bool
	log    logger.Logger
}

func NewVoiceCapture(log logger.Logger) *VoiceCapture {
	return &VoiceCapture{log: log}
}

// Start захватывает аудио-устройство. Повторный вызов при уже
// захваченном устройстве - no-op. При ошибке (отказ в доступе,
// нет устройства) состояние остается как до вызова: никакого
// частично удерживаемого handle.
func (v *VoiceCapture) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stream != nil {
		return nil
	}

	stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Audio: func(c *mediadevices.MediaTrackConstraints) {},
	})
	if err != nil {
		return fmt.Errorf("audio capture unavailable: %w", err)
	}

	v.stream = stream
	v.muted = false
	v.log.Info("Audio capture acquired", "tracks", len(stream.GetTracks()))
	return nil
}

// SetMuted переключает локальный флаг mute. Треки остаются
// захваченными: передачи нет, гасить нечего кроме индикатора.
func (v *VoiceCapture) SetMuted(muted bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.muted = muted
}

func (v *VoiceCapture) Muted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.muted
}

func (v *VoiceCapture) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stream != nil
}

// Stop освобождает устройство. Безопасен при не захваченном
// состоянии, вызывается на каждом пути выхода.
func (v *VoiceCapture) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stream == nil {
		return
	}

	for _, track := range v.stream.GetTracks() {
		if err := track.Close(); err != nil {
			v.log.Warn("Failed to close capture track", "error", err)
		}
	}
	v.stream = nil
	v.muted = false
	v.log.Info("Audio capture released")
}
