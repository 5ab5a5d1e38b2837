package appointments

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var Statuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Appointment struct {
	ID              int       `json:"id"`
	CompanyName     string    `json:"companyName"`
	PhoneNumber     string    `json:"phoneNumber"`
	Email           string    `json:"email"`
	PreferredDate   string    `json:"preferredDate"`
	PreferredTime   string    `json:"preferredTime"`
	Property        string    `json:"property"`
	Floor           string    `json:"floor"`
	AdditionalNotes string    `json:"additionalNotes"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Completed int `json:"completed"`
}
