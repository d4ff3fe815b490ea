package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	shown   []Notification
	closed  []string
	opened  []string
	showErr error
}

func (r *recorder) Show(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.showErr != nil {
		return r.showErr
	}
	r.shown = append(r.shown, n)
	return nil
}

func (r *recorder) Close(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, id)
	return nil
}

func (r *recorder) Open(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, path)
	return nil
}

func (r *recorder) shownCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shown)
}

func TestIssue_Contract(t *testing.T) {
	rec := &recorder{}
	iss := NewIssuer(DefaultOptions(), rec)
	iss.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	n, err := iss.Issue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "hourly-reminder", n.Tag)
	assert.True(t, n.RequireInteraction)
	assert.Equal(t, "/icon-192x192.png", n.Icon)
	assert.Equal(t, "/icon-192x192.png", n.Badge)
	require.Len(t, n.Actions, 2)
	assert.Equal(t, ActionOpen, n.Actions[0].Action)
	assert.Equal(t, ActionDismiss, n.Actions[1].Action)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, 1, rec.shownCount())

	n2, err := iss.Issue(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, n.ID, n2.ID)
}

func TestFire_IgnoresUnknownTag(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(NewIssuer(DefaultOptions(), rec), time.Hour)
	require.NoError(t, s.Fire(context.Background(), "daily"))
	assert.Equal(t, 0, rec.shownCount())
	require.NoError(t, s.Fire(context.Background(), DefaultTag))
	assert.Equal(t, 1, rec.shownCount())
}

func TestRun_FiresUntilCancelled(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(NewIssuer(DefaultOptions(), rec), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return rec.shownCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRun_DeliveryFailureIsNotFatal(t *testing.T) {
	rec := &recorder{showErr: errors.New("no clients")}
	s := NewScheduler(NewIssuer(DefaultOptions(), rec), 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	s.Run(ctx)
	assert.Equal(t, 0, rec.shownCount())
}

func TestClick_Branches(t *testing.T) {
	cases := []struct {
		name        string
		action      string
		dismissOpen bool
		wantOpen    bool
	}{
		{"open", ActionOpen, false, true},
		{"body", "", false, true},
		{"dismiss", ActionDismiss, false, false},
		{"dismiss opens when configured", ActionDismiss, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			h := NewClickHandler(rec, rec, tc.dismissOpen)
			opened, err := h.Handle(context.Background(), Click{NotificationID: "n1", Action: tc.action})
			require.NoError(t, err)
			assert.Equal(t, tc.wantOpen, opened)
			assert.Equal(t, []string{"n1"}, rec.closed)
			if tc.wantOpen {
				assert.Equal(t, []string{"/"}, rec.opened)
			} else {
				assert.Empty(t, rec.opened)
			}
		})
	}
}

func TestClick_UnknownAction(t *testing.T) {
	rec := &recorder{}
	_, err := NewClickHandler(rec, rec, false).Handle(context.Background(), Click{NotificationID: "n1", Action: "snooze"})
	assert.True(t, errors.Is(err, ErrUnknownAction))
	assert.Empty(t, rec.closed)
}
