package domain

import "time"

// Attachment stores metadata for a file uploaded against a ticket. The content
// itself lives in external storage referenced by ContentRef.
type Attachment struct {
	ID         string
	TicketID   string
	FileName   string
	FileType   string
	ContentRef string
	UploadedAt time.Time
}
