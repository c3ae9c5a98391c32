package model

import "time"

// Default values applied when the settings row does not exist yet.
const (
	DefaultCooldownHours  = 24
	DefaultRotationCursor = 0
)

// DistributionSettings is the singleton runtime configuration: the claim
// cooldown and the rotation cursor used for round-robin allocation. Both are
// admin-editable at runtime, so they live in storage rather than the process
// environment.
type DistributionSettings struct {
	CooldownHours  int       `json:"cooldown_hours"`
	RotationCursor int       `json:"rotation_cursor"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Cooldown returns the cooldown period as a duration.
func (s *DistributionSettings) Cooldown() time.Duration {
	return time.Duration(s.CooldownHours) * time.Hour
}

// UpdateSettingsRequest merges non-nil fields into the settings singleton.
type UpdateSettingsRequest struct {
	CooldownHours  *int `json:"cooldown_hours" validate:"omitempty,gte=0"`
	RotationCursor *int `json:"rotation_cursor" validate:"omitempty,gte=0"`
}
