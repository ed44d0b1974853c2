package models

import (
	"strings"
	"time"
)

// Contact is a message sent through the contact form.
type Contact struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Message     string    `json:"message"`
	Status      string    `json:"status,omitempty"` // new, read, replied
	SubmittedAt time.Time `json:"submittedAt"`
}

func (c Contact) RecordID() string { return c.ID }
func (c Contact) Label() string    { return c.Name }

// ContactPatch holds optional Contact fields.
type ContactPatch struct {
	Status  *string
	Subject *string
}

// Apply merges the set fields onto c.
func (p ContactPatch) Apply(c *Contact) {
	setString(&c.Status, p.Status)
	setString(&c.Subject, p.Subject)
}

// Subscriber is a newsletter sign-up, identified by email or phone.
type Subscriber struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Name         string    `json:"name,omitempty"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

func (s Subscriber) RecordID() string { return s.ID }

func (s Subscriber) Label() string {
	if s.Email != "" {
		return s.Email
	}
	return s.Phone
}

// DedupKey returns the normalized email, else phone, else the record ID.
func (s Subscriber) DedupKey() string {
	if e := strings.ToLower(strings.TrimSpace(s.Email)); e != "" {
		return "email:" + e
	}
	if p := strings.ToLower(strings.TrimSpace(s.Phone)); p != "" {
		return "phone:" + p
	}
	return "id:" + s.ID
}

// SubscriberPatch holds optional Subscriber fields.
type SubscriberPatch struct {
	Email *string
	Phone *string
	Name  *string
}

// Apply merges the set fields onto s.
func (p SubscriberPatch) Apply(s *Subscriber) {
	setString(&s.Email, p.Email)
	setString(&s.Phone, p.Phone)
	setString(&s.Name, p.Name)
}

// Application is a job application.
type Application struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	JobTitle    string    `json:"jobTitle,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	ResumeURL   string    `json:"resumeUrl,omitempty"`
	CoverLetter string    `json:"coverLetter,omitempty"`
	Status      string    `json:"status,omitempty"` // pending, reviewed, rejected, hired
	AppliedAt   time.Time `json:"appliedAt"`
}

func (a Application) RecordID() string { return a.ID }
func (a Application) Label() string    { return a.Name }

// ApplicationPatch holds optional Application fields.
type ApplicationPatch struct {
	Status *string
}

// Apply merges the set fields onto a.
func (p ApplicationPatch) Apply(a *Application) {
	setString(&a.Status, p.Status)
}
