package models

import "time"

// User adalah akun yang bisa login: customer, employee, atau admin.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255); not null" json:"name"`
	Email     string    `gorm:"type:varchar(255); unique;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255); not null" json:"-"`
	Role      Role      `gorm:"type:varchar(20); not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor -> identitas user untuk operasi engine dan room notifikasi.
func (u *User) Actor() Actor {
	return Actor{Role: u.Role, ID: u.ID}
}
