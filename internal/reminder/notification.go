// Package reminder periodically prompts operators to fill a form and
// handles what happens when they act on the prompt.
package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flarebyte/shiftlog/internal/log"
)

// Action ids carried by every reminder.
const (
	ActionOpen    = "open"
	ActionDismiss = "dismiss"
)

// DefaultTag is the recurring trigger name.
const DefaultTag = "hourly-reminder"

// Action is a button on a notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is what the platform shows to the operator.
type Notification struct {
	ID                 string    `json:"id"`
	Tag                string    `json:"tag"`
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	Icon               string    `json:"icon"`
	Badge              string    `json:"badge"`
	RequireInteraction bool      `json:"requireInteraction"`
	Actions            []Action  `json:"actions"`
	IssuedAt           time.Time `json:"issuedAt"`
}

// Notifier displays and closes notifications.
type Notifier interface {
	Show(ctx context.Context, n Notification) error
	Close(ctx context.Context, id string) error
}

// Opener brings the app to the front at path.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// Options is the notification content.
type Options struct {
	Tag                string
	Title              string
	Body               string
	Icon               string
	Badge              string
	OpenTitle          string
	DismissTitle       string
	RequireInteraction bool
}

// DefaultOptions returns the stock reminder content.
func DefaultOptions() Options {
	return Options{
		Tag:                DefaultTag,
		Title:              "תזכורת מילוי טופס",
		Body:               "זמן למלא את טופס מעקב העובדים",
		Icon:               "/icon-192x192.png",
		Badge:              "/icon-192x192.png",
		OpenTitle:          "פתח אפליקציה",
		DismissTitle:       "דחה",
		RequireInteraction: true,
	}
}

// Issuer builds and shows reminder notifications.
type Issuer struct {
	opts     Options
	notifier Notifier
	now      func() time.Time
	newID    func() string
}

// NewIssuer returns an Issuer showing notifications through n.
func NewIssuer(opts Options, n Notifier) *Issuer {
	def := DefaultOptions()
	if opts.Tag == "" {
		opts.Tag = def.Tag
	}
	if opts.OpenTitle == "" {
		opts.OpenTitle = def.OpenTitle
	}
	if opts.DismissTitle == "" {
		opts.DismissTitle = def.DismissTitle
	}
	return &Issuer{opts: opts, notifier: n, now: time.Now, newID: uuid.NewString}
}

// Tag is the trigger the issuer answers to.
func (i *Issuer) Tag() string { return i.opts.Tag }

// Issue shows one reminder.
func (i *Issuer) Issue(ctx context.Context) (Notification, error) {
	n := Notification{
		ID:                 i.newID(),
		Tag:                i.opts.Tag,
		Title:              i.opts.Title,
		Body:               i.opts.Body,
		Icon:               i.opts.Icon,
		Badge:              i.opts.Badge,
		RequireInteraction: i.opts.RequireInteraction,
		Actions: []Action{
			{Action: ActionOpen, Title: i.opts.OpenTitle},
			{Action: ActionDismiss, Title: i.opts.DismissTitle},
		},
		IssuedAt: i.now().UTC(),
	}
	if err := i.notifier.Show(ctx, n); err != nil {
		return n, err
	}
	log.GetLogger().WithField("tag", n.Tag).WithField("id", n.ID).Info("reminder shown")
	return n, nil
}
