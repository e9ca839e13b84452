package types

import "time"

// Resource types form a closed set. All of them except blog carry an
// externally hosted file; blog carries its body in the metadata map and a
// synthesized internal link.
const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceBook  = "book"
	ResourcePaper = "paper"
	ResourceBlog  = "blog"
)

// BlogLinkPrefix is the fixed path prefix for synthesized blog links.
const BlogLinkPrefix = "/blogs/"

// Resource represents a shared content item: a hosted file (image, video,
// book, paper) or an internally rendered blog post.
type Resource struct {
	// ID is the unique identifier of the resource.
	ID int `json:"id,string" db:"id"`

	// Title is the human-readable name of the resource.
	Title string `json:"title" db:"title"`

	// Type is one of the Resource* constants.
	Type string `json:"type" db:"type"`

	// Link is the external retrieval URL for file-bearing types, or the
	// synthesized internal path for blog posts. Blog links double as the
	// lookup key for rendering, so blog title slugs are unique.
	Link string `json:"link" db:"link"`

	// Description is required for file-bearing types.
	Description string `json:"description,omitempty" db:"description"`

	// FileSize is the uploaded payload's size in bytes; zero for blogs.
	FileSize int64 `json:"file_size,omitempty" db:"file_size"`

	// Metadata is a free-form string map (author, journal, blog body, ...).
	Metadata map[string]string `json:"metadata" db:"metadata"`

	// OwnerID references the user who created the resource.
	OwnerID int `json:"owner_id,string" db:"owner_id"`

	// CreatedAt is the timestamp when the resource was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasFile reports whether this resource type carries an externally hosted
// file.
func (r Resource) HasFile() bool {
	return IsFileType(r.Type)
}

// IsFileType reports whether the given resource type stores a file at the
// media host.
func IsFileType(resourceType string) bool {
	switch resourceType {
	case ResourceImage, ResourceVideo, ResourceBook, ResourcePaper:
		return true
	}
	return false
}

// IsResourceType reports whether the given string is a member of the closed
// resource type set.
func IsResourceType(resourceType string) bool {
	return IsFileType(resourceType) || resourceType == ResourceBlog
}
