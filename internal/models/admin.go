package models

import "time"

// AdminCredentials are the backend-issued identifiers every admin call must carry.
type AdminCredentials struct {
	AdminID   string `json:"admin_id" gorm:"type:varchar(64)"`
	AuthToken string `json:"authtoken" gorm:"type:text"`
}

// Complete reports whether both identifiers are present.
func (c AdminCredentials) Complete() bool {
	return c.AdminID != "" && c.AuthToken != ""
}

// AdminSession binds a locally issued session to backend credentials.
type AdminSession struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username    string           `json:"username" gorm:"type:varchar(100);not null"`
	Credentials AdminCredentials `json:"-" gorm:"embedded;embeddedPrefix:backend_"`
	CreatedAt   time.Time        `json:"created_at"`
}
