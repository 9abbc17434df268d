package models

import (
	"encoding/json"
	"time"
)

// LeadStatus represents the handling state of an inbound product inquiry
type LeadStatus string

const (
	LeadPending  LeadStatus = "pending"
	LeadComplete LeadStatus = "complete"
)

// Partnership is a partner logo/name shown on the marketing site
type Partnership struct {
	ID     int64           `json:"id"`
	Name   string          `json:"partner_name"`
	Images json.RawMessage `json:"partner_image"`
}

// Customer is a reference customer shown on the marketing site
type Customer struct {
	ID     int64           `json:"id"`
	Name   string          `json:"customer_name"`
	Images json.RawMessage `json:"customer_image"`
}

// Product is a catalog entry with marketing copy
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"product_name"`
	Images      json.RawMessage `json:"product_image"`
	Description string          `json:"product_description"`
	Success     json.RawMessage `json:"success"`
	Benefit     json.RawMessage `json:"benefit"`
	Performance json.RawMessage `json:"performance"`
	Comments    string          `json:"comments,omitempty"`
	Position    int             `json:"position"` // Display order
}

// ProjectReference is a completed project showcased on the site
type ProjectReference struct {
	ID         int64           `json:"id"`
	Name       string          `json:"project_name"`
	Images     json.RawMessage `json:"project_image"`
	Location   string          `json:"location"`
	SiteArea   string          `json:"site_area"`
	DateTime   string          `json:"date_time"`
	Contractor string          `json:"contractor,omitempty"`
	LayoutType int             `json:"layout_type"` // 1-4, number of images in the layout
	IsFavorite bool            `json:"is_favorite"`
	Position   int             `json:"position"`
}

// News is a dated announcement
type News struct {
	ID        int64           `json:"id"`
	Title     string          `json:"news_title"`
	Images    json.RawMessage `json:"news_image"`
	Keywords  json.RawMessage `json:"keyword,omitempty"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Article is a long-form technical article
type Article struct {
	ID        int64           `json:"id"`
	Title     string          `json:"article_title"`
	Images    json.RawMessage `json:"article_image"`
	Keywords  json.RawMessage `json:"keyword,omitempty"`
	Content   json.RawMessage `json:"content"`
	Category  string          `json:"category,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Lead is an inbound product inquiry from the public request form
type Lead struct {
	ID            int64      `json:"id"`
	FullName      string     `json:"full_name"`
	EmailAddress  string     `json:"email_address"`
	ContactNumber string     `json:"contact_number"`
	CompanyName   string     `json:"company_name"`
	Country       string     `json:"country"`
	Comments      string     `json:"comments,omitempty"`
	ProductName   string     `json:"product_name"`
	Status        LeadStatus `json:"status"`
	RequestTime   time.Time  `json:"request_time"`
}

// Admin is a back-office user allowed to mutate content
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt, never serialized
	CreatedAt    time.Time `json:"created_at"`
}
