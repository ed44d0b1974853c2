package models

import "time"

// Settings is the single site-wide settings document.
type Settings struct {
	SiteName     string            `json:"siteName"`
	Tagline      string            `json:"tagline,omitempty"`
	ContactEmail string            `json:"contactEmail,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Address      string            `json:"address,omitempty"`
	SocialLinks  map[string]string `json:"socialLinks,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}
