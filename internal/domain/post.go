package domain

import "time"

// PostStatus is the publishing state of a post.
type PostStatus string

// Post statuses.
const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPosted    PostStatus = "posted"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPosted:
		return true
	}
	return false
}

// Post is a piece of source content the user is composing.
// Variants reference it by ID and are deleted with it.
type Post struct {
	ID            string     `json:"id"`
	FolderID      *string    `json:"folder_id"` // Weak reference; nil when unfiled
	SourceContent string     `json:"source_content"`
	Status        PostStatus `json:"status"`
	Tags          []string   `json:"tags"`
	CampaignID    *string    `json:"campaign_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PublishedAt   *time.Time `json:"published_at"`
}

// Touch updates the UpdatedAt timestamp.
func (p *Post) Touch() {
	p.UpdatedAt = time.Now()
}

// InFolder reports whether the post is filed under folderID.
func (p *Post) InFolder(folderID string) bool {
	return p.FolderID != nil && *p.FolderID == folderID
}

// MarkPosted sets the post as published at t.
func (p *Post) MarkPosted(t time.Time) {
	p.Status = PostStatusPosted
	p.PublishedAt = &t
	p.UpdatedAt = t
}

// PostFilter is the library view filter.
type PostFilter string

// Library filters.
const (
	PostFilterAll       PostFilter = "all"
	PostFilterDrafts    PostFilter = "drafts"
	PostFilterScheduled PostFilter = "scheduled"
	PostFilterPosted    PostFilter = "posted"
)

// Matches reports whether p passes the filter. Unknown filters match everything.
func (f PostFilter) Matches(p *Post) bool {
	switch f {
	case PostFilterDrafts:
		return p.Status == PostStatusDraft
	case PostFilterScheduled:
		return p.Status == PostStatusScheduled
	case PostFilterPosted:
		return p.Status == PostStatusPosted
	default:
		return true
	}
}
