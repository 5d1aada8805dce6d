package domain

import (
	"fmt"
	"time"
)

// Post represents a wall post as returned by the data source.
// It is immutable once fetched; identity is (OwnerID, PostID).
type Post struct {
	PostID      int64        `json:"id"`
	OwnerID     int64        `json:"owner_id"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
	CopyHistory []Post       `json:"copy_history"`
	Date        int64        `json:"date"`
}

// Attachment represents a single post attachment.
// Only photo and wall attachment types are meaningful to the pipeline.
type Attachment struct {
	Type  string `json:"type"`
	Photo *Photo `json:"photo,omitempty"`
}

// Photo holds the size variants of a photo attachment.
type Photo struct {
	Sizes []PhotoSize `json:"sizes"`
}

// PhotoSize is one resolution variant of a photo.
type PhotoSize struct {
	URL   string `json:"url"`
	Width int    `json:"width"`
}

// Ref returns the canonical post reference in owner_post form.
// Parameters: none.
// Returns:
//   - string: reference usable in wall links and case records.
func (p *Post) Ref() string {
	return fmt.Sprintf("%d_%d", p.OwnerID, p.PostID)
}

// PublishedAt returns the publication time of the post.
func (p *Post) PublishedAt() time.Time {
	return time.Unix(p.Date, 0).UTC()
}

// IsShared reports whether the post carries a platform-native share marker.
func (p *Post) IsShared() bool {
	return len(p.CopyHistory) > 0
}

// ImageURLs extracts one representative URL per photo attachment,
// picking the largest available resolution.
// Parameters: none.
// Returns:
//   - []string: ordered candidate image URLs, possibly empty.
func (p *Post) ImageURLs() []string {
	var urls []string
	for _, att := range p.Attachments {
		if att.Type != "photo" || att.Photo == nil || len(att.Photo.Sizes) == 0 {
			continue
		}
		best := att.Photo.Sizes[0]
		for _, s := range att.Photo.Sizes[1:] {
			if s.Width > best.Width {
				best = s
			}
		}
		if best.URL != "" {
			urls = append(urls, best.URL)
		}
	}
	return urls
}

// HasImages reports whether the post has at least one photo attachment.
func (p *Post) HasImages() bool {
	for _, att := range p.Attachments {
		if att.Type == "photo" && att.Photo != nil && len(att.Photo.Sizes) > 0 {
			return true
		}
	}
	return false
}
