package domain

import "time"

// CreditAccount maps a user identity to its spendable credit balance.
// Created lazily on first authenticated contact, never deleted.
type CreditAccount struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;type:text"`
	Email     string    `json:"email" gorm:"type:text;not null;default:''"`
	Balance   int64     `json:"balance" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CreditAccount) TableName() string { return "credit_accounts" }
