package presenter

import (
	"fmt"
	"sort"
	"time"

	"geoconsole/models"
)

const (
	RowsPerPage = 10

	keyPermalink     = "/maps/api-keys/%s"
	datasetPermalink = "/data/geojson/%s"
)

// Row is one line of a resource table.
type Row struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Updated   time.Time `json:"updated"`
	Permalink string    `json:"permalink"`
	IsPublic  *bool     `json:"isPublic,omitempty"`
}

func KeyRows(keys []models.Key) []Row {
	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, Row{
			ID:        key.KeyID,
			Name:      key.Name,
			Updated:   key.CreatedAt,
			Permalink: fmt.Sprintf(keyPermalink, key.KeyID),
		})
	}
	return rows
}

func DatasetRows(datasets []models.Dataset) []Row {
	rows := make([]Row, 0, len(datasets))
	for _, ds := range datasets {
		isPublic := ds.IsPublic
		rows = append(rows, Row{
			ID:        ds.ID,
			Name:      ds.Name,
			Updated:   ds.UpdatedAt,
			Permalink: fmt.Sprintf(datasetPermalink, ds.ID),
			IsPublic:  &isPublic,
		})
	}
	return rows
}

// SortByRecency returns a copy of rows, most recently updated first.
// Rows with the same time keep their input order.
func SortByRecency(rows []Row) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Updated.After(sorted[j].Updated)
	})
	return sorted
}

type Page struct {
	Rows    []Row `json:"rows"`
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Total   int   `json:"total"`
	Pages   int   `json:"pages"`
}

// Paginate cuts the zero based page out of rows. Pages past the end are empty.
func Paginate(rows []Row, page, perPage int) Page {
	if perPage <= 0 {
		perPage = RowsPerPage
	}
	if page < 0 {
		page = 0
	}

	out := Page{
		Rows:    []Row{},
		Page:    page,
		PerPage: perPage,
		Total:   len(rows),
		Pages:   (len(rows) + perPage - 1) / perPage,
	}

	if page >= out.Pages {
		return out
	}
	start := page * perPage
	end := start + perPage
	if end > len(rows) {
		end = len(rows)
	}
	out.Rows = rows[start:end]
	return out
}
