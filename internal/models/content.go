package models

import "time"

// Service is an offering listed on the public site.
type Service struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Features    []string  `json:"features,omitempty"`
	Price       string    `json:"price,omitempty"`
	Order       int       `json:"order"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s Service) RecordID() string { return s.ID }
func (s Service) Label() string    { return s.Title }
func (s Service) IsActive() bool   { return s.Active }

// ServicePatch holds optional Service fields.
type ServicePatch struct {
	Title       *string
	Description *string
	Icon        *string
	Features    []string
	Price       *string
	Order       *int
	Active      *bool
}

// Apply merges the set fields onto s.
func (p ServicePatch) Apply(s *Service) {
	setString(&s.Title, p.Title)
	setString(&s.Description, p.Description)
	setString(&s.Icon, p.Icon)
	if p.Features != nil {
		s.Features = p.Features
	}
	setString(&s.Price, p.Price)
	setInt(&s.Order, p.Order)
	setBool(&s.Active, p.Active)
}

// TeamMember is a person shown on the team page.
type TeamMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Email     string    `json:"email,omitempty"`
	Order     int       `json:"order"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m TeamMember) RecordID() string { return m.ID }
func (m TeamMember) Label() string    { return m.Name }
func (m TeamMember) IsActive() bool   { return m.Active }

// TeamMemberPatch holds optional TeamMember fields.
type TeamMemberPatch struct {
	Name     *string
	Role     *string
	Bio      *string
	ImageURL *string
	Email    *string
	Order    *int
	Active   *bool
}

// Apply merges the set fields onto m.
func (p TeamMemberPatch) Apply(m *TeamMember) {
	setString(&m.Name, p.Name)
	setString(&m.Role, p.Role)
	setString(&m.Bio, p.Bio)
	setString(&m.ImageURL, p.ImageURL)
	setString(&m.Email, p.Email)
	setInt(&m.Order, p.Order)
	setBool(&m.Active, p.Active)
}

// Testimonial is a customer quote.
type Testimonial struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Company   string    `json:"company,omitempty"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t Testimonial) RecordID() string { return t.ID }
func (t Testimonial) Label() string    { return t.Author }
func (t Testimonial) IsActive() bool   { return t.Active }

// TestimonialPatch holds optional Testimonial fields.
type TestimonialPatch struct {
	Author  *string
	Company *string
	Content *string
	Rating  *int
	Active  *bool
}

// Apply merges the set fields onto t.
func (p TestimonialPatch) Apply(t *Testimonial) {
	setString(&t.Author, p.Author)
	setString(&t.Company, p.Company)
	setString(&t.Content, p.Content)
	setInt(&t.Rating, p.Rating)
	setBool(&t.Active, p.Active)
}

// Job is an open position on the careers page.
type Job struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Department   string    `json:"department,omitempty"`
	Location     string    `json:"location,omitempty"`
	Type         string    `json:"type,omitempty"` // full-time, part-time, contract
	Description  string    `json:"description,omitempty"`
	Requirements []string  `json:"requirements,omitempty"`
	Active       bool      `json:"active"`
	PostedAt     time.Time `json:"postedAt"`
}

func (j Job) RecordID() string { return j.ID }
func (j Job) Label() string    { return j.Title }
func (j Job) IsActive() bool   { return j.Active }

// JobPatch holds optional Job fields.
type JobPatch struct {
	Title        *string
	Department   *string
	Location     *string
	Type         *string
	Description  *string
	Requirements []string
	Active       *bool
}

// Apply merges the set fields onto j.
func (p JobPatch) Apply(j *Job) {
	setString(&j.Title, p.Title)
	setString(&j.Department, p.Department)
	setString(&j.Location, p.Location)
	setString(&j.Type, p.Type)
	setString(&j.Description, p.Description)
	if p.Requirements != nil {
		j.Requirements = p.Requirements
	}
	setBool(&j.Active, p.Active)
}
