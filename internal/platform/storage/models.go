package storage

import (
	"time"

	"gorm.io/datatypes"
)

// User is the persisted account record.
type User struct {
	ID             uint           `gorm:"primaryKey"                             json:"id"`
	Username       string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	HashedPassword string         `                                              json:"-"`
	FullName       string         `gorm:"type:varchar(255)"                      json:"full_name"`
	Email          string         `gorm:"type:varchar(255)"                      json:"email"`
	Role           string         `gorm:"type:varchar(32);default:'user'"        json:"role"`
	Active         bool           `gorm:"default:true"                           json:"active"`
	Scopes         datatypes.JSON `gorm:"type:text"                              json:"scopes"`
	CreatedAt      time.Time      `                                              json:"created_at"`
	UpdatedAt      time.Time      `                                              json:"updated_at"`
}

// Item is a catalog entry owned by a user.
type Item struct {
	ID        uint      `gorm:"primaryKey"                    json:"id"`
	Name      string    `gorm:"type:varchar(255);not null"    json:"name"`
	Price     float64   `gorm:"not null"                      json:"price"`
	Owner     string    `gorm:"type:varchar(255);index"       json:"owner"`
	CreatedAt time.Time `                                     json:"created_at"`
	UpdatedAt time.Time `                                     json:"updated_at"`
}
