package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// User is the identity-store record an agent or admin is bound to. The
// registration engine only reads it, except for mirroring a submitted phone
// number.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	FirstName    string    `json:"first_name" bson:"first_name"`
	LastName     string    `json:"last_name" bson:"last_name"`
	Email        string    `json:"email" bson:"email"`
	PhoneNumber  string    `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Admin is a privileged role record bound 1:1 to a user.
type Admin struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Role      string    `json:"role" bson:"role"`
	IsAdmin   bool      `json:"is_admin" bson:"is_admin"`
	IsActive  bool      `json:"is_active" bson:"is_active"`
	User      *User     `json:"user,omitempty" bson:"-"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
