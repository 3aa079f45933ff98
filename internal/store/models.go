package store

import "time"

// Photo is one self-hosted photo row. ID is the public identifier exposed
// to clients; SHA256 and Ext locate the stored media.
type Photo struct {
	ID               string     `db:"id"`
	Title            string     `db:"title"`
	Width            int        `db:"width"`
	Height           int        `db:"height"`
	Bytes            int64      `db:"bytes"`
	Mime             string     `db:"mime"`
	OriginalFilename string     `db:"original_filename"`
	SHA256           string     `db:"sha256"`
	Ext              string     `db:"ext"`
	BlurHash         string     `db:"blurhash"`
	TagText          string     `db:"tag_text"`
	TakenAt          *time.Time `db:"taken_at"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
	Tags             []string   `db:"-"`
}

// Timestamp is when the photo was taken, falling back to the upload time.
func (p *Photo) Timestamp() time.Time {
	if p.TakenAt != nil && !p.TakenAt.IsZero() {
		return *p.TakenAt
	}
	return p.CreatedAt
}

type PhotoCreate struct {
	ID               string
	Title            string
	Tags             []string
	Width            int
	Height           int
	Bytes            int64
	Mime             string
	OriginalFilename string
	SHA256           string
	Ext              string
	BlurHash         string
	TakenAt          *time.Time
}

type ListParams struct {
	Tags           []string
	Limit          int
	Sort           string
	IncludeDeleted bool
}
