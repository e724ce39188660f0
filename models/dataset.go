package models

import (
	"time"
)

type DatasetStatus string

const (
	StatusDraft     DatasetStatus = "draft"
	StatusPublished DatasetStatus = "published"
)

func (s DatasetStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Toggle flips between draft and published.
func (s DatasetStatus) Toggle() DatasetStatus {
	if s == StatusPublished {
		return StatusDraft
	}
	return StatusPublished
}

// Dataset is a GeoJSON dataset served by the geosearch API.
type Dataset struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	IsPublic       bool          `json:"isPublic"`
	Status         DatasetStatus `json:"status"`
	AllowedOrigins []string      `json:"allowedOrigins"`
	UpdatedAt      time.Time     `json:"updateAt"`
}

// DownloadAvailable reports whether the public download URL is meaningful.
func (d Dataset) DownloadAvailable() bool {
	return d.IsPublic && d.Status == StatusPublished
}

func (d Dataset) Clone() Dataset {
	d.AllowedOrigins = cloneStrings(d.AllowedOrigins)
	return d
}

func (d Dataset) Equal(o Dataset) bool {
	return d.ID == o.ID &&
		d.Name == o.Name &&
		d.IsPublic == o.IsPublic &&
		d.Status == o.Status &&
		equalStrings(d.AllowedOrigins, o.AllowedOrigins)
}

// DatasetUpdate is the PUT body of /geojsons/{id}.
type DatasetUpdate struct {
	Name           string        `json:"name"`
	IsPublic       bool          `json:"isPublic"`
	AllowedOrigins []string      `json:"allowedOrigins"`
	Status         DatasetStatus `json:"status"`
}

func (d Dataset) Update() DatasetUpdate {
	return DatasetUpdate{
		Name:           d.Name,
		IsPublic:       d.IsPublic,
		AllowedOrigins: nonNil(d.AllowedOrigins),
		Status:         d.Status,
	}
}
