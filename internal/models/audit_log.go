package models

// AuditLog records user-initiated mutations for troubleshooting.
type AuditLog struct {
	Base
	GroupID      string `gorm:"type:varchar(64);index" json:"group_id"`
	UserID       string `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"type:varchar(64)" json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
