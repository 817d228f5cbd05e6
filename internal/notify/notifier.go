package notify

import (
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
)

const (
	notifyService   = "org.freedesktop.Notifications"
	notifyPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod    = notifyService + ".Notify"
	dismissMethod   = notifyService + ".CloseNotification"
	applicationName = "walltab"
)

// DesktopNotifier posts user notifications through the freedesktop
// notification service. Without a session bus it degrades to log-only
// notices, so callers never have to care.
type DesktopNotifier struct {
	logger *zap.Logger
	conn   *dbus.Conn
}

// NewDesktopNotifier connects to the session bus; a failed connection is
// logged and leaves the notifier in log-only mode
func NewDesktopNotifier(logger *zap.Logger) *DesktopNotifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		logger.Warn("Session bus unavailable, notifications are log-only", zap.Error(err))
		conn = nil
	}
	return &DesktopNotifier{logger: logger, conn: conn}
}

// Notify shows text for the given duration. A zero timeout keeps the
// notice up until Hide is called on the returned handle; the freedesktop
// protocol has the same zero-means-sticky convention.
func (n *DesktopNotifier) Notify(text string, timeout time.Duration) domain.Notice {
	n.logger.Info("Notification", zap.String("text", text))
	if n.conn == nil {
		return nopNotice{}
	}

	obj := n.conn.Object(notifyService, notifyPath)
	var id uint32
	err := obj.Call(notifyMethod, 0,
		applicationName,
		uint32(0),
		"",
		applicationName,
		text,
		[]string{},
		map[string]dbus.Variant{},
		int32(timeout/time.Millisecond),
	).Store(&id)
	if err != nil {
		n.logger.Warn("Failed to post desktop notification", zap.Error(err))
		return nopNotice{}
	}

	return &desktopNotice{conn: n.conn, id: id}
}

// desktopNotice dismisses a posted notification on Hide
type desktopNotice struct {
	conn *dbus.Conn
	id   uint32
}

// Hide dismisses the notification
func (d *desktopNotice) Hide() {
	d.conn.Object(notifyService, notifyPath).Call(dismissMethod, 0, d.id)
}

// nopNotice backs log-only mode
type nopNotice struct{}

// Hide is a no-op
func (nopNotice) Hide() {}
