package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flarebyte/shiftlog/internal/kv"
	"github.com/flarebyte/shiftlog/internal/reminder"
)

func recv(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case m, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	return Message{}
}

func TestHubBroadcast(t *testing.T) {
	h := New()
	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	if n := h.Broadcast(Message{Type: TypeNavigate}); n != 2 {
		t.Fatalf("sent=%d", n)
	}
	if m := recv(t, sub1); m.Type != TypeNavigate {
		t.Fatalf("sub1: %s", m.Type)
	}
	if m := recv(t, sub2); m.Type != TypeNavigate {
		t.Fatalf("sub2: %s", m.Type)
	}
}

func TestHubSlowConsumer(t *testing.T) {
	h := New()
	_ = h.Subscribe()
	for i := 0; i < subscriberBuffer+10; i++ {
		h.Broadcast(Message{Type: TypeStoreChanged})
	}
	if h.Dropped() != 10 {
		t.Fatalf("dropped=%d", h.Dropped())
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := New()
	sub := h.Subscribe()
	h.Unsubscribe(sub)
	if h.Subscribers() != 0 {
		t.Fatalf("subscribers=%d", h.Subscribers())
	}
	if _, ok := <-sub; ok {
		t.Fatal("expected closed channel")
	}
	h.Unsubscribe(sub)
}

func TestHubNotifierWithoutSubscribers(t *testing.T) {
	h := New()
	err := h.Show(context.Background(), reminder.Notification{ID: "n1"})
	if !errors.Is(err, ErrNoSubscribers) {
		t.Fatalf("err=%v", err)
	}
	if err := h.Close(context.Background(), "n1"); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestHubReminderRoundTrip(t *testing.T) {
	h := New()
	sub := h.Subscribe()
	iss := reminder.NewIssuer(reminder.DefaultOptions(), h)
	n, err := iss.Issue(context.Background())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	m := recv(t, sub)
	got, ok := m.Data.(reminder.Notification)
	if m.Type != TypeShow || !ok || got.ID != n.ID {
		t.Fatalf("unexpected %+v", m)
	}

	opened, err := reminder.NewClickHandler(h, h, false).Handle(context.Background(), reminder.Click{NotificationID: n.ID, Action: reminder.ActionOpen})
	if err != nil || !opened {
		t.Fatalf("click: %v %v", opened, err)
	}
	if m := recv(t, sub); m.Type != TypeClose {
		t.Fatalf("want close, got %s", m.Type)
	}
	m = recv(t, sub)
	if m.Type != TypeNavigate || m.Data.(map[string]string)["path"] != "/" {
		t.Fatalf("want navigate /, got %+v", m)
	}
}

func TestHubStartForwardsChanges(t *testing.T) {
	h := New()
	sub := h.Subscribe()
	changes := make(chan kv.Change, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		h.Start(ctx, changes)
		close(done)
	}()

	changes <- kv.Change{Key: "injections", Op: kv.OpPut}
	m := recv(t, sub)
	if c, ok := m.Data.(kv.Change); !ok || m.Type != TypeStoreChanged || c.Key != "injections" {
		t.Fatalf("unexpected %+v", m)
	}

	close(changes)
	<-done
	if _, ok := <-sub; ok {
		t.Fatal("expected subscribers closed")
	}
}
