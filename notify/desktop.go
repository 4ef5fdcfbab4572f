// Package notify provides the process-wide server-presence flag and
// desktop notification delivery.
// This file contains the freedesktop notification sender used to
// surface newly arrived operator messages.
package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/samermassoud/eduvpn-client/common"
)

const (
	notifyObject    = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyInterface = "org.freedesktop.Notifications.Notify"
)

// DesktopNotifier posts desktop notifications over the session D-Bus.
// It implements common.Notifier.
type DesktopNotifier struct {
	conn *dbus.Conn
}

// NewDesktopNotifier connects to the session bus.
func NewDesktopNotifier() (*DesktopNotifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DesktopNotifier{conn: conn}, nil
}

// Notify sends a transient notification with the given title and message.
func (n *DesktopNotifier) Notify(title, message string) error {
	obj := n.conn.Object(notifyObject, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyInterface, 0,
		common.AppName,          // app_name
		uint32(0),               // replaces_id
		"network-vpn",           // app_icon
		title,                   // summary
		message,                 // body
		[]string{},              // actions
		map[string]dbus.Variant{}, // hints
		int32(-1),               // expire_timeout: server default
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}

// Close releases the bus connection.
func (n *DesktopNotifier) Close() error {
	return n.conn.Close()
}
