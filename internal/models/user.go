package models

import (
	"time"

	"github.com/google/uuid"
)

// Staff roles checked by the authorization middleware
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist:
		return true
	}
	return false
}

type User struct {
	UUID           uuid.UUID
	CreatedAt      time.Time
	FirstName      string
	LastName       string
	Email          string
	HashedPassword string
	Role           Role
}
