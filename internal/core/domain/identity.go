package domain

import "time"

// Role is the marketplace capacity an account acts in.
type Role string

const (
	RoleProducer      Role = "producer"
	RoleConsumer      Role = "consumer"
	RoleAdministrator Role = "administrator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleProducer, RoleConsumer, RoleAdministrator:
		return true
	}
	return false
}

// SelfAssignable reports whether an account may pick r at registration.
func (r Role) SelfAssignable() bool {
	return r == RoleProducer || r == RoleConsumer
}

// Identity is the durable account record. PasswordHash never leaves the server.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Snapshot returns a copy of the identity without the password hash.
func (i *Identity) Snapshot() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.PasswordHash = ""
	return &c
}

// Registration carries everything needed to create an account.
type Registration struct {
	Email       string
	Password    string
	DisplayName string
	Role        Role
	Phone       string
	Address     string
}
