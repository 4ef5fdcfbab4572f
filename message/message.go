// Package message decodes operational and system message payloads and
// resolves the best-fit localized text for display.
package message

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samermassoud/eduvpn-client/common"
)

// Category classifies a message by its server-side type.
type Category int

const (
	// CategoryNotification is a general operator notification.
	CategoryNotification Category = iota
	// CategoryMOTD is a message of the day.
	CategoryMOTD
	// CategoryMaintenance announces a maintenance window.
	CategoryMaintenance
)

// String returns a human-readable representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryNotification:
		return "Notification"
	case CategoryMOTD:
		return "MOTD"
	case CategoryMaintenance:
		return "Maintenance"
	default:
		return "Unknown"
	}
}

// Audience indicates which feed a message arrived on.
type Audience int

const (
	// AudienceSystem is a message from the system_messages feed.
	AudienceSystem Audience = iota
	// AudienceUser is a message from the user_messages feed.
	AudienceUser
)

// Message is a single decoded server message. It is immutable after
// decoding. Either RawText or Variants carries the content; when both
// are present, Variants wins and RawText is the fallback for
// preferences that match no variant.
type Message struct {
	RawText    string
	Variants   map[string]string
	Timestamp  time.Time
	ValidFrom  time.Time // zero when absent
	ValidUntil time.Time // zero when absent
	Category   Category
	Audience   Audience
}

// displayTimeLayout is a medium date plus medium time, matching the
// presentation the desktop clients use for message timestamps.
const displayTimeLayout = "Jan 2, 2006 at 3:04:05 PM"

// Localized resolves the message content against a ranked locale
// preference list, most preferred first.
//
// For locale-map messages the first preference with a matching variant
// wins. Matching includes close BCP 47 matches (a "nl" preference finds
// an "nl-NL" variant), and a close variant takes precedence over the
// raw string: the raw string is the fallback only when no variant
// matches at all, and the result is empty when there is no raw string
// either. Single-string messages return the raw string regardless of
// preferences.
func (m *Message) Localized(preferred []string) string {
	if len(m.Variants) == 0 {
		return m.RawText
	}
	if text, ok := matchVariant(m.Variants, preferred); ok {
		return text
	}
	if m.RawText != "" {
		return m.RawText
	}
	return ""
}

// DisplayString formats the message as a timestamp line followed by the
// localized content. Returns ok=false when localization produced no
// content.
func (m *Message) DisplayString(preferred []string) (string, bool) {
	text := m.Localized(preferred)
	if text == "" {
		return "", false
	}
	return m.Timestamp.Format(displayTimeLayout) + "\n" + text, true
}

// Active reports whether the message's validity window, if any,
// contains the given instant.
func (m *Message) Active(now time.Time) bool {
	if !m.ValidFrom.IsZero() && now.Before(m.ValidFrom) {
		return false
	}
	if !m.ValidUntil.IsZero() && now.After(m.ValidUntil) {
		return false
	}
	return true
}

// SystemMessages is the ordered sequence of messages from one payload.
type SystemMessages struct {
	Messages []Message
}

// DisplayString concatenates all messages' display strings, separated
// by one blank line. Messages that resolve to empty content are
// skipped, so the result never contains consecutive separators.
func (s *SystemMessages) DisplayString(preferred []string) string {
	parts := make([]string, 0, len(s.Messages))
	for i := range s.Messages {
		if text, ok := s.Messages[i].DisplayString(preferred); ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Active returns the subset of messages whose validity window contains
// the given instant, preserving order.
func (s *SystemMessages) Active(now time.Time) *SystemMessages {
	out := &SystemMessages{}
	for _, m := range s.Messages {
		if m.Active(now) {
			out.Messages = append(out.Messages, m)
		}
	}
	return out
}

// Wire format.

type envelope struct {
	SystemMessages *feed `json:"system_messages"`
	UserMessages   *feed `json:"user_messages"`
}

type feed struct {
	Data []wireMessage `json:"data"`
}

type wireMessage struct {
	Type       string          `json:"type"`
	DateTime   string          `json:"date_time"`
	Message    json.RawMessage `json:"message"`
	ValidFrom  string          `json:"valid_from"`
	ValidUntil string          `json:"valid_until"`
}

// Decode parses a message payload document. Both the system_messages
// and user_messages feeds are read when present; order within each feed
// is preserved, system messages first.
//
// A missing or malformed type or date_time is a hard decode failure.
// The message content field is decoded leniently: it may be a single
// string or a locale-to-string map, and a value that is neither simply
// yields empty content.
func Decode(payload []byte) (*SystemMessages, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, common.WrapError(common.ErrDecodeFailed, err.Error())
	}

	out := &SystemMessages{}
	if env.SystemMessages != nil {
		for _, w := range env.SystemMessages.Data {
			m, err := decodeOne(w, AudienceSystem)
			if err != nil {
				return nil, err
			}
			out.Messages = append(out.Messages, m)
		}
	}
	if env.UserMessages != nil {
		for _, w := range env.UserMessages.Data {
			m, err := decodeOne(w, AudienceUser)
			if err != nil {
				return nil, err
			}
			out.Messages = append(out.Messages, m)
		}
	}
	return out, nil
}

func decodeOne(w wireMessage, audience Audience) (Message, error) {
	category, err := parseCategory(w.Type)
	if err != nil {
		return Message{}, err
	}

	if w.DateTime == "" {
		return Message{}, common.WrapError(common.ErrDecodeFailed, "missing date_time")
	}
	timestamp, err := time.Parse(time.RFC3339, w.DateTime)
	if err != nil {
		return Message{}, common.WrapError(common.ErrDecodeFailed,
			fmt.Sprintf("invalid date_time %q", w.DateTime))
	}

	m := Message{
		Timestamp: timestamp,
		Category:  category,
		Audience:  audience,
	}

	// Optional validity window. A malformed bound is treated the same
	// as an absent one.
	if t, err := time.Parse(time.RFC3339, w.ValidFrom); err == nil {
		m.ValidFrom = t
	}
	if t, err := time.Parse(time.RFC3339, w.ValidUntil); err == nil {
		m.ValidUntil = t
	}

	// The content field unions a plain string with a locale map.
	// Try both; an absent or unusable value yields empty content
	// rather than a decode error.
	if len(w.Message) > 0 {
		var raw string
		if err := json.Unmarshal(w.Message, &raw); err == nil {
			m.RawText = raw
		} else {
			var variants map[string]string
			if err := json.Unmarshal(w.Message, &variants); err == nil {
				m.Variants = variants
			}
		}
	}

	return m, nil
}

func parseCategory(s string) (Category, error) {
	switch s {
	case "notification":
		return CategoryNotification, nil
	case "motd":
		return CategoryMOTD, nil
	case "maintenance":
		return CategoryMaintenance, nil
	case "":
		return 0, common.WrapError(common.ErrDecodeFailed, "missing type")
	default:
		return 0, common.WrapError(common.ErrDecodeFailed,
			fmt.Sprintf("unknown message type %q", s))
	}
}
