package channel

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alpha200/ha-ai-tasker/internal/bus"
	"github.com/Alpha200/ha-ai-tasker/internal/config"
)

// mockBot implements TelegramBot.
type mockBot struct {
	self    tgbotapi.User
	updates chan tgbotapi.Update
	sent    []tgbotapi.MessageConfig
	stopped bool
}

func newMockBot() *mockBot {
	return &mockBot{
		self:    tgbotapi.User{ID: 4242, UserName: "taskerbot"},
		updates: make(chan tgbotapi.Update, 10),
	}
}

func (m *mockBot) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updates
}

func (m *mockBot) StopReceivingUpdates() {
	m.stopped = true
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.sent = append(m.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (m *mockBot) GetSelf() tgbotapi.User {
	return m.self
}

func startedChannel(t *testing.T) (*TelegramChannel, *mockBot, *bus.MessageBus) {
	t.Helper()
	mock := newMockBot()
	b := bus.NewMessageBus(10)

	ch, err := NewTelegramChannelWithFactory(
		config.ChatConfig{TelegramToken: "test-token", RoomID: "1000"},
		b,
		func(token string) (TelegramBot, error) { return mock, nil },
	)
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("start channel: %v", err)
	}
	t.Cleanup(func() { ch.Stop() })
	return ch, mock, b
}

func TestMissingToken(t *testing.T) {
	_, err := NewTelegramChannelWithFactory(config.ChatConfig{}, bus.NewMessageBus(1), nil)
	if err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestStartSetsOwnID(t *testing.T) {
	ch, _, _ := startedChannel(t)
	if got := ch.OwnID(); got != "4242" {
		t.Errorf("OwnID = %q", got)
	}
}

func TestInboundMessage(t *testing.T) {
	_, mock, b := startedChannel(t)

	sent := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	mock.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "remind me to water the plants",
		Chat: &tgbotapi.Chat{ID: 1000},
		From: &tgbotapi.User{ID: 77},
		Date: int(sent.Unix()),
	}}

	select {
	case msg := <-b.Inbound:
		if msg.RoomID != "1000" || msg.SenderID != "77" {
			t.Errorf("msg = %+v", msg)
		}
		if msg.Text != "remind me to water the plants" {
			t.Errorf("text = %q", msg.Text)
		}
		if !msg.Timestamp.Equal(sent) {
			t.Errorf("timestamp = %v, want %v", msg.Timestamp, sent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no inbound message")
	}
}

func TestInboundCaptionFallback(t *testing.T) {
	_, mock, b := startedChannel(t)

	mock.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		Caption: "photo of the fridge",
		Chat:    &tgbotapi.Chat{ID: 1000},
		From:    &tgbotapi.User{ID: 77},
		Date:    int(time.Now().Unix()),
	}}

	select {
	case msg := <-b.Inbound:
		if msg.Text != "photo of the fridge" {
			t.Errorf("text = %q", msg.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no inbound message")
	}
}

func TestInboundEmptyMessageIgnored(t *testing.T) {
	_, mock, b := startedChannel(t)

	mock.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 1000},
		From: &tgbotapi.User{ID: 77},
		Date: int(time.Now().Unix()),
	}}

	select {
	case msg := <-b.Inbound:
		t.Fatalf("unexpected inbound %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSend(t *testing.T) {
	ch, mock, _ := startedChannel(t)

	if err := ch.Send(bus.OutboundMessage{RoomID: "1000", Content: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(mock.sent) != 1 {
		t.Fatalf("sent = %d messages", len(mock.sent))
	}
	if mock.sent[0].ChatID != 1000 || mock.sent[0].Text != "hello" {
		t.Errorf("sent = %+v", mock.sent[0])
	}
}

func TestSendChunksLongMessages(t *testing.T) {
	ch, mock, _ := startedChannel(t)

	long := strings.Repeat("line of text\n", 500) // well over 4000 chars
	if err := ch.Send(bus.OutboundMessage{RoomID: "1000", Content: long}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(mock.sent) < 2 {
		t.Fatalf("expected chunked send, got %d messages", len(mock.sent))
	}
	var total int
	for _, msg := range mock.sent {
		if len(msg.Text) > 4000 {
			t.Errorf("chunk exceeds limit: %d chars", len(msg.Text))
		}
		total += len(msg.Text)
	}
	if total < len(long)-len(mock.sent) {
		t.Errorf("content lost in chunking: sent %d of %d chars", total, len(long))
	}
}

func TestSendInvalidRoomID(t *testing.T) {
	ch, _, _ := startedChannel(t)
	if err := ch.Send(bus.OutboundMessage{RoomID: "not-a-number", Content: "x"}); err == nil {
		t.Error("expected error for invalid room id")
	}
}

func TestStop(t *testing.T) {
	ch, mock, _ := startedChannel(t)
	if err := ch.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !mock.stopped {
		t.Error("StopReceivingUpdates not called")
	}
}
