package models

import (
	"time"
)

type AnnouncementInteraction struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Me    bool   `json:"me"`
}

type Announcement struct {
	ID           string                    `json:"id"`
	CafeID       string                    `json:"cafe_id"`
	Title        string                    `json:"title"`
	Content      string                    `json:"content"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
	ActiveUntil  time.Time                 `json:"active_until"`
	Tags         []string                  `json:"tags"`
	Author       *UserProfile              `json:"author,omitempty"`
	Interactions []AnnouncementInteraction `json:"interactions,omitempty"`
}

type AnnouncementInput struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ActiveUntil time.Time `json:"active_until"`
	Tags        []string  `json:"tags"`
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
