package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/flarebyte/shiftlog/internal/log"
)

// ErrUnknownAction is returned for click actions the reminder never offered.
var ErrUnknownAction = errors.New("unknown notification action")

// RootPath is where the app opens after a click.
const RootPath = "/"

// Click is the operator's response to a notification. An empty Action is a
// click on the notification body.
type Click struct {
	NotificationID string `json:"notificationId"`
	Action         string `json:"action"`
}

// ClickHandler closes the clicked notification and opens the app for open
// and body clicks. Dismiss opens the app only when DismissOpensApp is set.
type ClickHandler struct {
	notifier        Notifier
	opener          Opener
	dismissOpensApp bool
}

// NewClickHandler wires the handler.
func NewClickHandler(n Notifier, o Opener, dismissOpensApp bool) *ClickHandler {
	return &ClickHandler{notifier: n, opener: o, dismissOpensApp: dismissOpensApp}
}

// Handle reacts to c and reports whether the app was opened.
func (h *ClickHandler) Handle(ctx context.Context, c Click) (bool, error) {
	var open bool
	switch c.Action {
	case "", ActionOpen:
		open = true
	case ActionDismiss:
		open = h.dismissOpensApp
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownAction, c.Action)
	}
	if err := h.notifier.Close(ctx, c.NotificationID); err != nil {
		return false, err
	}
	if !open {
		log.GetLogger().WithField("id", c.NotificationID).Debug("reminder dismissed")
		return false, nil
	}
	if err := h.opener.Open(ctx, RootPath); err != nil {
		return false, err
	}
	return true, nil
}
