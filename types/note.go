package types

import "time"

// Note represents a study document managed through the admin area. The
// backing file lives at the external media host; FileUrl is its stable
// retrieval URL.
type Note struct {
	// ID is the unique identifier of the note.
	ID int `json:"id,string" db:"id"`

	// Title is the human-readable name of the note.
	Title string `json:"title" db:"title"`

	// Description is the free-text summary shown in listings.
	Description string `json:"description" db:"description"`

	// Type is the document kind tag (e.g. "PDF", "DOC", "PPT").
	Type string `json:"type" db:"type"`

	// Date is the display date of the note.
	Date time.Time `json:"date" db:"date"`

	// Subject is the subject tag used for grouping.
	Subject string `json:"subject" db:"subject"`

	// FileUrl points at the externally hosted file. While non-empty, the
	// backing object must exist at the media host.
	FileUrl string `json:"file_url,omitempty" db:"file_url"`

	// OwnerID references the user who created the note.
	OwnerID int `json:"owner_id,string" db:"owner_id"`

	// OwnerName is the owning user's display name, resolved on listing.
	// Not persisted on the note row.
	OwnerName string `json:"owner_name,omitempty" db:"-"`

	// CreatedAt is the timestamp when the note was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the note.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
