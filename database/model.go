package database

import (
	"fmt"
	"time"

	"github.com/aufmass/go-aufmass/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project types. A plain survey documents locations only; a floor-plan
// survey additionally places location markers on uploaded plan pages.
const (
	ProjectTypePlain     = "plain"
	ProjectTypeFloorPlan = "floorplan"
)

// Image blob roles.
const (
	RoleAnnotated = "annotated"
	RoleOriginal  = "original"
	RoleFloorPlan = "floorplan"
)

// Project owns all child entities. Deleting one cascades through
// locations, their detail images, floor plans and every image blob.
// Locations and FloorPlans are hydrated on read, not gorm associations:
// cascades are explicit store code.
type Project struct {
	ID            string    `gorm:"type:uuid;primarykey" json:"id"`
	Number        string    `gorm:"uniqueIndex;not null" json:"projectNumber"`
	Type          string    `gorm:"not null;default:''" json:"projectType,omitempty"`
	GuestPassword string    `gorm:"not null;default:''" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `gorm:"index;not null" json:"updatedAt"`

	Locations  []Location  `gorm:"-" json:"locations"`
	FloorPlans []FloorPlan `gorm:"-" json:"floorPlans,omitempty"`
}

func (m *Project) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	return nil
}

// Location is one documented site within a project. Optional classifiers
// are nil when never entered; empty string is a deliberate cleared value.
type Location struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	ProjectID string    `gorm:"type:uuid;index;not null" json:"-"`
	Number    string    `gorm:"not null" json:"locationNumber"`
	Name      *string   `json:"locationName,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	System    *string   `json:"system,omitempty"`
	Label     *string   `json:"label,omitempty"`
	Type      *string   `json:"locationType,omitempty"`
	GuestInfo string    `gorm:"not null;default:''" json:"guestInfo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	ImageData         string        `gorm:"-" json:"imageData,omitempty"`
	OriginalImageData string        `gorm:"-" json:"originalImageData,omitempty"`
	DetailImages      []DetailImage `gorm:"-" json:"detailImages,omitempty"`
}

func (m *Location) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

// DetailImage is a supplementary close-up attached to a location.
type DetailImage struct {
	ID         string    `gorm:"type:uuid;primarykey" json:"id"`
	LocationID string    `gorm:"type:uuid;index;not null" json:"-"`
	Caption    *string   `json:"caption,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`

	ImageData         string `gorm:"-" json:"imageData,omitempty"`
	OriginalImageData string `gorm:"-" json:"originalImageData,omitempty"`
}

func (m *DetailImage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

// FloorPlan is one rendered page of an uploaded plan document. PageIndex
// orders pages across one or more uploads.
type FloorPlan struct {
	ID        string      `gorm:"type:uuid;primarykey" json:"id"`
	ProjectID string      `gorm:"type:uuid;index;not null" json:"-"`
	Name      string      `gorm:"not null" json:"name"`
	PageIndex int         `gorm:"not null;default:0" json:"pageIndex"`
	Markers   MarkerField `gorm:"not null" json:"markers"`
	CreatedAt time.Time   `json:"createdAt"`

	ImageData string `gorm:"-" json:"imageData,omitempty"`
}

func (m *FloorPlan) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Marker ties a point on a floor plan to a location. LocationID is a weak
// lookup key: markers are placed with a pre-generated location id before
// the capture flow creates the location itself, so readers must tolerate a
// dangling reference and treat it as pending.
type Marker struct {
	ID         string  `json:"id"`
	LocationID string  `json:"locationId"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// ClampMarkers forces marker positions into the unit square. Raw pointer
// coordinates from the UI may land outside the plan image.
func ClampMarkers(markers []Marker) []Marker {
	out := make([]Marker, len(markers))
	for i, m := range markers {
		m.X = clamp01(m.X)
		m.Y = clamp01(m.Y)
		out[i] = m
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ImageBlob stores one encoded image, compressed, keyed by its owning
// entity and role. Owner is a location, detail image or floor plan id.
type ImageBlob struct {
	ID      string     `gorm:"primarykey"`
	OwnerID string     `gorm:"index;not null"`
	Role    string     `gorm:"not null"`
	Mime    string     `gorm:"not null"`
	Data    ImageField `gorm:"not null"`
}

// BlobID derives the blob primary key for an owner/role pair.
func BlobID(ownerID, role string) string {
	return fmt.Sprintf("%s_%s", ownerID, role)
}

// LocationNumber derives the sequential display number of the location at
// the given position within a project.
func LocationNumber(projectNumber string, index int) string {
	return fmt.Sprintf("%s-%d", projectNumber, config.LOCATION_NUMBER_BASE+index)
}
