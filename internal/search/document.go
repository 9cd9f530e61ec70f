// Package search provides full-text search over posts and their variants using Bleve.
package search

import (
	"github.com/polypost/polypost-server/internal/domain"
)

// DocType tells posts and variants apart inside the shared index.
type DocType string

const (
	DocTypePost    DocType = "post"
	DocTypeVariant DocType = "variant"
)

// Document is one indexed post or variant. A variant carries its post's ID,
// so a match in any translation leads back to the post.
type Document struct {
	ID       string
	Type     DocType
	PostID   string
	Content  string
	Tags     []string
	Status   string
	FolderID string
	Language string
	Created  int64 // unix millis
	Updated  int64
}

// fields flattens d into the names the mapping declares. Empty optional
// fields are left out so term filters do not match blanks.
func (d *Document) fields() map[string]any {
	f := map[string]any{
		fieldID:      d.ID,
		fieldType:    string(d.Type),
		fieldPostID:  d.PostID,
		fieldContent: d.Content,
		fieldCreated: d.Created,
		fieldUpdated: d.Updated,
	}
	optional := map[string]string{
		fieldStatus:   d.Status,
		fieldFolderID: d.FolderID,
		fieldLanguage: d.Language,
	}
	for k, v := range optional {
		if v != "" {
			f[k] = v
		}
	}
	if len(d.Tags) > 0 {
		f[fieldTags] = d.Tags
	}
	return f
}

// FromPost builds the document for a post's source text.
func FromPost(p *domain.Post) *Document {
	d := &Document{
		ID:      p.ID,
		Type:    DocTypePost,
		PostID:  p.ID,
		Content: p.SourceContent,
		Tags:    p.Tags,
		Status:  string(p.Status),
		Created: p.CreatedAt.UnixMilli(),
		Updated: p.UpdatedAt.UnixMilli(),
	}
	if p.FolderID != nil {
		d.FolderID = *p.FolderID
	}
	return d
}

// FromVariant builds the document for a variant. Variants never change,
// so both timestamps are the creation time.
func FromVariant(v *domain.Variant) *Document {
	d := &Document{
		ID:      v.ID,
		Type:    DocTypeVariant,
		PostID:  v.PostID,
		Content: v.Content,
		Created: v.CreatedAt.UnixMilli(),
		Updated: v.CreatedAt.UnixMilli(),
	}
	if v.Language != nil {
		d.Language = string(*v.Language)
	}
	return d
}
