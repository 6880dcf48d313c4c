package models

import "time"

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName    string     `gorm:"size:150" json:"first_name,omitempty"`
	LastName     string     `gorm:"size:150" json:"last_name,omitempty"`
	Phone        string     `gorm:"size:20" json:"phone,omitempty"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	Provider     string     `gorm:"size:30" json:"provider,omitempty"`
	ProviderID   string     `gorm:"size:255;index" json:"-"`
	IsStaff      bool       `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool       `gorm:"not null" json:"is_superuser"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CanAdmin indique si l'utilisateur a accès à l'administration
func (u User) CanAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
