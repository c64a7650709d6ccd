package entity

import "time"

// AppSetting is a persisted process-wide configuration value
type AppSetting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}

// Setting keys
const (
	SettingTokenResetTime           = "token_reset_time"
	SettingEmergencyProtocolEnabled = "emergency_protocol_enabled"
)
