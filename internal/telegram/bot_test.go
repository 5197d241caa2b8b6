package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"hr-interview-bot/internal/interview"
)

func TestClientSendMessage(t *testing.T) {
	var got []SendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		got = append(got, SendMessageRequest{ChatID: req["chat_id"], Text: req["text"].(string)})
		if mode, _ := req["parse_mode"].(string); mode != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer server.Close()

	client := NewClient("token", time.Second).WithBaseURL(server.URL)
	if err := client.SendMessage(context.Background(), 42, "*broken", nil); err != nil {
		t.Fatalf("expected plain text fallback, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected retry without markdown, got %d calls", len(got))
	}
	if got[0].ChatID.(float64) != 42 {
		t.Fatalf("unexpected chat id %v", got[0].ChatID)
	}

	got = nil
	if err := client.SendMessageTo(context.Background(), "@hr_results", "отчет"); err != nil {
		t.Fatalf("send to channel: %v", err)
	}
	if got[0].ChatID != "@hr_results" {
		t.Fatalf("channel name must be sent as string, got %v", got[0].ChatID)
	}
}

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer server.Close()

	client := NewClient("token", time.Second).WithBaseURL(server.URL)
	err := client.SendMessage(context.Background(), 1, "привет", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden || apiErr.Method != "sendMessage" {
		t.Fatalf("expected APIError 403, got %v", err)
	}
}

func TestClientGetUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req getUpdatesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Offset != 7 || req.Timeout != 50 {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"callback_query":{"id":"c","from":{"id":5,"first_name":"A"},"data":"start_interview"}}]}`))
	}))
	defer server.Close()

	client := NewClient("token", time.Second).WithBaseURL(server.URL)
	updates, err := client.GetUpdates(context.Background(), 7, 2*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) != 1 || updates[0].SenderID() != 5 || updates[0].CallbackQuery.Data != "start_interview" {
		t.Fatalf("unexpected updates %+v", updates)
	}
}

func TestNotifierSplitsLongMessages(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender)

	line := strings.Repeat("ы", 99) + "\n"
	reply := interview.Reply{
		Text:    strings.Repeat(line, 50),
		Buttons: [][]interview.Button{{{Text: "Далее", Action: "next"}}},
	}
	if err := n.Deliver(context.Background(), 3, reply); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(sender.messages) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(sender.messages))
	}
	if sender.messages[0].markup != nil || sender.messages[1].markup == nil {
		t.Fatal("keyboard must be attached to the last part only")
	}
	for _, m := range sender.messages {
		if n := len([]rune(m.text)); n > maxMessageLength {
			t.Fatalf("part too long: %d", n)
		}
	}

	if err := n.Announce(context.Background(), "@hr", "итог"); err != nil {
		t.Fatalf("announce: %v", err)
	}
	if sender.last().chat != "@hr" {
		t.Fatalf("unexpected announce target %+v", sender.last())
	}
}

type recordingHandler struct {
	mu    sync.Mutex
	seen  map[int64][]int64
	delay time.Duration
}

func (r *recordingHandler) HandleUpdate(_ context.Context, u Update) error {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[u.SenderID()] = append(r.seen[u.SenderID()], u.UpdateID)
	if u.UpdateID == 3 {
		panic("boom")
	}
	return nil
}

func TestDispatcherKeepsPerUserOrder(t *testing.T) {
	h := &recordingHandler{seen: make(map[int64][]int64), delay: time.Millisecond}
	d := NewDispatcher(h, zap.NewNop())

	for i := int64(1); i <= 10; i++ {
		u := textUpdate(1+i%2, "x")
		u.UpdateID = i
		d.Dispatch(context.Background(), u)
	}
	d.Wait()

	for user, ids := range h.seen {
		if len(ids) != 5 {
			t.Fatalf("user %d: expected 5 updates, got %v", user, ids)
		}
		for i := 1; i < len(ids); i++ {
			if ids[i] < ids[i-1] {
				t.Fatalf("user %d: updates out of order %v", user, ids)
			}
		}
	}
}

type stubSource struct {
	calls int
}

func (s *stubSource) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]Update, error) {
	s.calls++
	switch s.calls {
	case 1:
		return []Update{{UpdateID: 10, Message: textUpdate(1, "a").Message}}, nil
	case 2:
		if offset != 11 {
			return nil, errors.New("offset was not advanced")
		}
		return []Update{{UpdateID: 11, Message: textUpdate(1, "b").Message}}, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPollerAdvancesOffset(t *testing.T) {
	h := &recordingHandler{seen: make(map[int64][]int64)}
	d := NewDispatcher(h, zap.NewNop())
	source := &stubSource{}
	p := NewPoller(source, d, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		h.mu.Lock()
		n := len(h.seen[1])
		h.mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected two updates, got %v", h.seen)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
	d.Wait()
}
