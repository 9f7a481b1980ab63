package models

import "fmt"

// Role menentukan grup aktor yang terhubung ke sistem.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// SharedRoom -> nama room bersama untuk satu role group.
func (r Role) SharedRoom() string {
	return string(r) + "s"
}

// Actor adalah identitas pemanggil operasi (customer, employee, admin).
type Actor struct {
	Role Role `json:"role"`
	ID   uint `json:"id"`
}

// PersonalRoom -> nama room pribadi, format "<role>_<identity>".
func (a Actor) PersonalRoom() string {
	return fmt.Sprintf("%s_%d", a.Role, a.ID)
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleEmployee || a.Role == RoleAdmin
}
