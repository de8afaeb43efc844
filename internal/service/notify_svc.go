package service

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogNotificationSink is the default NotificationSink: it records the
// notification and moves on. Push delivery is an external concern; this
// sink is the boundary's in-process stand-in and the shape any real
// transport must keep — fire-and-forget, never failing the engagement.
type LogNotificationSink struct{}

func NewLogNotificationSink() *LogNotificationSink {
	return &LogNotificationSink{}
}

// Notify logs the engagement notification at debug level.
func (s *LogNotificationSink) Notify(_ context.Context, n Notification) {
	log.Debug().
		Str("creator_id", n.CreatorID).
		Str("video_id", n.VideoID).
		Str("side", string(n.Side)).
		Int("clout", n.Clout).
		Bool("burst", n.IsBurst).
		Msg("notification")
}
