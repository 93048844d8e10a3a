package models

import (
	"time"
)

type User struct {
	ID           string        `json:"id" gorm:"primaryKey;size:36"`
	Name         string        `json:"name" gorm:"not null"`
	Phone        string        `json:"phone" gorm:"uniqueIndex;size:10;not null"`
	Email        string        `json:"email" gorm:"index"`
	Language     Language      `json:"language" gorm:"size:10;default:'english'"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	Transactions []Transaction `json:"orders,omitempty" gorm:"-"`
}

type Language string

const (
	English Language = "english"
	Hindi   Language = "hindi"
)

// Admin is an operations account; it never owns transactions.
type Admin struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor identifies who performed a mutation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
