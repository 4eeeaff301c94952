package models

import "time"

type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TripStatus is the publication state of a trip.
type TripStatus string

const (
	TripDraft     TripStatus = "DRAFT"
	TripPublished TripStatus = "PUBLISHED"
	TripCompleted TripStatus = "COMPLETED"
	TripCancelled TripStatus = "CANCELLED"
)

func (s TripStatus) Valid() bool {
	switch s {
	case TripDraft, TripPublished, TripCompleted, TripCancelled:
		return true
	}
	return false
}

type Trip struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	LocationID  string     `json:"location_id"`
	AgentID     string     `json:"agent_id,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	Price       int64      `json:"price"`
	Capacity    int        `json:"capacity"`
	Status      TripStatus `json:"status"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Advertisement promotes a trip with an image hosted in object storage.
type Advertisement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	TripID    string    `json:"trip_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadTask hands a client a presigned URL to PUT an object to.
type UploadTask struct {
	Key       string    `json:"key"`
	URL       string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
