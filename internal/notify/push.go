// push.go: optional forwarding of critical notifications to external
// services via shoutrrr URLs.
package notify

import (
	"fmt"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/datastore"
)

// Pusher forwards high-severity notifications to operator-configured
// shoutrrr endpoints. Delivery is best effort: failures are logged and
// never propagate to the sweep.
type Pusher struct {
	sender *router.ServiceRouter
}

// NewPusher builds a pusher from the configured URLs. Returns nil when
// push forwarding is disabled or unconfigured.
func NewPusher(settings *conf.Settings) (*Pusher, error) {
	if !settings.Notify.Push.Enabled || len(settings.Notify.Push.URLs) == 0 {
		return nil, nil
	}
	sender, err := shoutrrr.CreateSender(settings.Notify.Push.URLs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create push sender: %w", err)
	}
	return &Pusher{sender: sender}, nil
}

// Forward sends a notification to the configured endpoints if its type
// warrants immediate delivery. Only acute health notifications go out;
// routine grade and inspection updates stay in the web UI.
func (p *Pusher) Forward(notification *datastore.Notification, restaurantName string) {
	switch notification.Type {
	case datastore.NotificationHealthOutbreak, datastore.NotificationViolationAdded:
	default:
		return
	}

	message := fmt.Sprintf("%s\n%s", notification.Title, notification.Message)
	for _, err := range p.sender.Send(message, nil) {
		if err != nil {
			GetLogger().Error("push delivery failed",
				"restaurant", restaurantName,
				"type", notification.Type,
				"error", err)
		}
	}
}
