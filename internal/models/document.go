package models

import "time"

// DocumentRecord describes an ingested document. ID is the hex SHA-256 of
// the file content, so re-uploading the same bytes maps to the same record.
type DocumentRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Pages     int       `json:"pages"`
	Passages  int       `json:"passages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
