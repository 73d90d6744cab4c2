package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID            string    `bun:"id,pk" json:"id"`
	Email         string    `bun:"email,unique" json:"email"`
	PasswordHash  string    `bun:"password_hash" json:"-"`
	FirstName     string    `bun:"first_name" json:"first_name"`
	LastName      string    `bun:"last_name" json:"last_name"`
	PhoneNumber   string    `bun:"phone_number" json:"phone_number,omitempty"`
	StreetAddress string    `bun:"street_address" json:"street_address,omitempty"`
	Bio           string    `bun:"bio" json:"bio,omitempty"`
	CreatedAt     time.Time `bun:"created_at" json:"created_at"`
}
