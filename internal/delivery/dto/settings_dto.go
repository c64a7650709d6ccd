package dto

// Request DTOs

type UpdateSettingsRequest struct {
	TokenResetTime           *string `json:"token_reset_time,omitempty" validate:"omitempty,len=5"`
	EmergencyProtocolEnabled *bool   `json:"emergency_protocol_enabled,omitempty"`
}

// Response DTOs

type SettingsResponse struct {
	TokenResetTime           string `json:"token_reset_time"`
	EmergencyProtocolEnabled bool   `json:"emergency_protocol_enabled"`
	BusinessTimezone         string `json:"business_timezone"`
	CurrentBusinessDay       string `json:"current_business_day"`
}
