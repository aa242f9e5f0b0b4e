package model

import "time"

// Course mirrors the `courses` table.  A course is owned by exactly one
// sensei; deleting it cascades to its sections, lessons, threads and
// purchases.
//
// Fields:
//  ID            – primary key identifier.
//  SenseiID      – authoring user.
//  Name          – course title.
//  Description   – catalog description.
//  Price         – price in the gateway's major currency unit.
//  DurationHours – advertised total duration.
//  MiniatureRef  – storage reference of the thumbnail image.
//  PreviewRef    – storage reference of the preview video.
//  CreatedAt     – timestamp of creation.
type Course struct {
	ID            uint64    // courses.id
	SenseiID      uint64    // courses.sensei_id
	Name          string    // courses.name
	Description   string    // courses.description
	Price         float64   // courses.price
	DurationHours float64   // courses.duration_hours
	MiniatureRef  string    // courses.miniature_ref
	PreviewRef    string    // courses.preview_ref
	CreatedAt     time.Time // courses.created_at
}

// Section mirrors the `sections` table.  Sections group lessons inside a
// course; ordering is insertion order.
type Section struct {
	ID       uint64 // sections.id
	CourseID uint64 // sections.course_id
	Title    string // sections.title
}

// Lesson mirrors the `lessons` table.  CourseID is denormalized from the
// section for query convenience.  FileRef points at externally stored
// media.
type Lesson struct {
	ID              uint64 // lessons.id
	SectionID       uint64 // lessons.section_id
	CourseID        uint64 // lessons.course_id
	Title           string // lessons.title
	FileRef         string // lessons.file_ref
	MimeType        string // lessons.mime_type
	DurationMinutes uint32 // lessons.duration_minutes
}
