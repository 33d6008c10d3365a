package enums

import "fmt"

// LotStatus maps to the lot_status enum in Postgres.
type LotStatus string

const (
	LotStatusOpen      LotStatus = "open"
	LotStatusCompleted LotStatus = "completed"
	LotStatusCancelled LotStatus = "cancelled"
)

var validLotStatuses = []LotStatus{
	LotStatusOpen,
	LotStatusCompleted,
	LotStatusCancelled,
}

// IsValid checks whether the given status matches the canonical enum.
func (s LotStatus) IsValid() bool {
	for _, candidate := range validLotStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s LotStatus) IsTerminal() bool {
	return s == LotStatusCompleted || s == LotStatusCancelled
}

// ParseLotStatus converts raw strings into LotStatus.
func ParseLotStatus(value string) (LotStatus, error) {
	for _, candidate := range validLotStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lot status %q", value)
}
