package models

import (
	"strconv"
	"time"
)

type Participant struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	ProfileImage string `yaml:"profile_image,omitempty"`
}

type LastMessage struct {
	Content   string
	Timestamp time.Time
	Read      bool
	SenderID  string
}

type ProductStatus string

const (
	StatusAvailable ProductStatus = "available"
	StatusReserved  ProductStatus = "reserved"
	StatusSold      ProductStatus = "sold"
)

// ProductRef is the listing a chat room is about.
type ProductRef struct {
	ID     string        `yaml:"id"`
	Title  string        `yaml:"title"`
	Price  string        `yaml:"price"`
	Image  string        `yaml:"image,omitempty"`
	Status ProductStatus `yaml:"status,omitempty"`
}

type ChatRoom struct {
	ID          string
	Participant Participant
	LastMessage LastMessage
	Product     *ProductRef
	UnreadCount int
}

// Message is a single chat message. CreatedAt is in epoch milliseconds.
// Messages are never mutated once appended to a room.
type Message struct {
	ID        string
	RoomID    string
	Text      string
	Mine      bool
	CreatedAt int64
	Read      *bool
}

// Time returns CreatedAt as a time.Time in the given location.
func (m Message) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(m.CreatedAt).In(loc)
}

type Product struct {
	ID        string
	Title     string
	Price     string
	Location  string
	Category  string
	PostedAt  time.Time
	Image     string
	Liked     bool
	ChatCount int
	Seller    Participant
}

type Profile struct {
	ID                string
	Name              string
	Nickname          string
	Email             string
	City              string
	District          string
	MannerTemperature float64
	ResponseRate      int
	JoinDate          time.Time
	Verified          bool
	TotalSales        int
	TotalPurchases    int
	TotalReviews      int
	AverageRating     float64
}

// UnreadBadge renders an unread count the way the chat list shows it.
func UnreadBadge(n int) string {
	if n <= 0 {
		return ""
	}
	if n > 99 {
		return "99+"
	}
	return strconv.Itoa(n)
}
