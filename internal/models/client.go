package models

import "time"

// Client is an API consumer allowed to submit orders.
type Client struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       string    `json:"name" gorm:"uniqueIndex;type:varchar(100)"`
	SecretHash string    `json:"-" gorm:"type:varchar(255)"`
	CreatedAt  time.Time `json:"createdAt"`
}
