package store

import "time"

// Option is one flat key/value setting.
type Option struct {
	Name      string `gorm:"primaryKey;type:varchar(191)"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// ContactFormRecord is a CF7 form known to the admin API.
type ContactFormRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement:false"`
	Title     string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ContactFormRecord) TableName() string {
	return "contact_forms"
}

const (
	optGuardEnabled     = "fg_guard_enabled"
	optAllowedDomain    = "fg_allowed_domain"
	optGuardMessage     = "fg_guard_message"
	optGuardMessagePH   = "fg_guard_message_ph"
	optUseGeoAPI        = "fg_use_geo_api"
	optDisabledCF7Forms = "fg_disabled_cf7_forms"
)
