package domain

import "time"

// Status is a canonical delivery status with its hierarchy level. Levels
// impose a monotonic ordering over the status names: the recorded history of
// a message never regresses to a lower level.
type Status struct {
	Name  string
	Level int
}

// FailedLevel marks the terminal failure status. It sorts above every real
// level but is a non-exclusive marker: it is always recorded and does not
// block later genuine progress updates.
const FailedLevel = 99

var (
	StatusMessageReceipt = Status{Name: "message_receipt", Level: 0}
	StatusValidated      = Status{Name: "validated", Level: 1}
	StatusSent           = Status{Name: "sent", Level: 2}
	StatusDelivered      = Status{Name: "delivered", Level: 3}
	StatusRead           = Status{Name: "read", Level: 4}
	StatusPlayed         = Status{Name: "played", Level: 5}
	StatusFailed         = Status{Name: "failed", Level: FailedLevel}
)

var statusesByName = map[string]Status{
	StatusMessageReceipt.Name: StatusMessageReceipt,
	StatusValidated.Name:      StatusValidated,
	StatusSent.Name:           StatusSent,
	StatusDelivered.Name:      StatusDelivered,
	StatusRead.Name:           StatusRead,
	StatusPlayed.Name:         StatusPlayed,
	StatusFailed.Name:         StatusFailed,
}

// StatusByName looks up a canonical status by name.
func StatusByName(name string) (Status, bool) {
	s, ok := statusesByName[name]
	return s, ok
}

// Terminal reports whether the status is the failure marker.
func (s Status) Terminal() bool {
	return s.Level == FailedLevel
}

// transportStatusCodes maps raw transport acknowledgment codes to canonical
// statuses. Numeric codes follow the multi-device transport's WAMessageStatus
// enum; named codes are accepted for providers that report text statuses.
var transportStatusCodes = map[string]Status{
	"0":            StatusFailed,
	"1":            StatusSent, // accepted by the transport, pending server ack
	"2":            StatusSent,
	"3":            StatusDelivered,
	"4":            StatusRead,
	"5":            StatusPlayed,
	"ERROR":        StatusFailed,
	"PENDING":      StatusSent,
	"SERVER_ACK":   StatusSent,
	"DELIVERY_ACK": StatusDelivered,
	"READ":         StatusRead,
	"PLAYED":       StatusPlayed,
}

// StatusFromTransportCode normalizes a transport-specific status code.
// Canonical names are accepted as-is so internal callers can reuse the
// same path.
func StatusFromTransportCode(code string) (Status, bool) {
	if s, ok := transportStatusCodes[code]; ok {
		return s, true
	}
	return StatusByName(code)
}

// StatusEvent is one append-only row of a message's status history.
type StatusEvent struct {
	MessageID      string    `json:"message_id"`
	StatusName     string    `json:"status_name"`
	HierarchyLevel int       `json:"hierarchy_level"`
	CreatedAt      time.Time `json:"created_at"`
}
