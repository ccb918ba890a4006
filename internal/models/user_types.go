package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User roles. New accounts default to customer; admin accounts are seeded.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the model for the 'users' table.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Role         string    `json:"role" db:"role"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// Password wraps a plaintext/hash pair so handlers never touch bcrypt directly.
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
