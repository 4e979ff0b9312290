package model

import (
	"strings"
	"time"
)

// Contact is a prospect owned by exactly one user.
type Contact struct {
	ID                 int64      `json:"id" db:"id"`
	OwnerID            string     `json:"ownerId" db:"owner_id"`
	FirstName          string     `json:"firstName" db:"first_name"`
	LastName           string     `json:"lastName" db:"last_name"`
	Email              *string    `json:"email" db:"email"`
	Company            *string    `json:"company" db:"company"`
	CompanyID          *int64     `json:"companyId" db:"company_id"`
	JobTitle           *string    `json:"jobTitle" db:"job_title"`
	Phone              *string    `json:"phone" db:"phone"`
	Notes              *string    `json:"notes" db:"notes"`
	LinkedInProviderID *string    `json:"linkedinProviderId" db:"linkedin_provider_id"`
	LinkedInURL        *string    `json:"linkedinUrl" db:"linkedin_url"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt          *time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ContactInfo is the subset of a contact used to build prompts.
func (c *Contact) ContactInfo() ContactInfo {
	info := ContactInfo{FirstName: c.FirstName, LastName: c.LastName}
	if c.JobTitle != nil {
		info.JobTitle = *c.JobTitle
	}
	if c.Company != nil {
		info.Company = *c.Company
	}
	return info
}

// CreateContactRequest is the body of POST /contacts.
type CreateContactRequest struct {
	FirstName          string  `json:"firstName" validate:"required,max=255"`
	LastName           string  `json:"lastName" validate:"required,max=255"`
	Email              *string `json:"email" validate:"omitempty,email"`
	Company            *string `json:"company" validate:"omitempty,max=255"`
	CompanyID          *int64  `json:"companyId"`
	JobTitle           *string `json:"jobTitle" validate:"omitempty,max=255"`
	Phone              *string `json:"phone" validate:"omitempty,max=50"`
	Notes              *string `json:"notes"`
	LinkedInProviderID *string `json:"linkedinProviderId"`
	LinkedInURL        *string `json:"linkedinUrl" validate:"omitempty,url"`
}

// ContactSummary identifies an existing contact in LinkedIn previews.
type ContactSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Summary returns the contact's id and name.
func (c *Contact) Summary() *ContactSummary {
	return &ContactSummary{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName}
}

// LinkedInURLRequest is the body of the LinkedIn preview and import endpoints.
type LinkedInURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ListContactsResponse is the response for listing contacts.
type ListContactsResponse struct {
	Contacts []Contact `json:"contacts"`
	Total    int       `json:"total"`
}
