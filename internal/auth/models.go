package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the single authorization attribute of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	DisplayName  string             `bson:"display_name" json:"display_name"`
	PhotoURL     string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Role         Role               `bson:"role" json:"role"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Principal is the authenticated caller, passed explicitly into every
// service operation.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
