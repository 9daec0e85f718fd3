package model

import "time"

// Artist represents a music artist in the catalog.
//
// NameKey holds the normalized form of Name and carries a unique index.
// The index is what makes "create artist if absent" atomic when several
// scan workers race on the same name.
type Artist struct {
	ID            int64     `json:"id" gorm:"primaryKey;column:id"`
	Name          string    `json:"name" gorm:"column:name;size:255;not null"`
	NameKey       string    `json:"-" gorm:"column:name_key;size:255;uniqueIndex;not null"`
	Bio           string    `json:"bio" gorm:"column:bio;type:text"`
	Country       string    `json:"country" gorm:"column:country;size:100"`
	FollowerCount int64     `json:"followerCount" gorm:"column:follower_count;default:0"`
	CreatedAt     time.Time `json:"createdAt" gorm:"column:created_at"`
}

// TableName maps Artist to the artists table.
func (Artist) TableName() string {
	return "artists"
}
