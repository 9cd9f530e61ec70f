package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

const (
	fieldID       = "id"
	fieldType     = "type"
	fieldPostID   = "post_id"
	fieldContent  = "content"
	fieldTags     = "tags"
	fieldStatus   = "status"
	fieldFolderID = "folder_id"
	fieldLanguage = "language"
	fieldCreated  = "created_at"
	fieldUpdated  = "updated_at"
)

// schemaVersion must change whenever newMapping does; Open rebuilds
// indexes stamped with another version.
const schemaVersion = "2"

// keywordFields are matched as whole values. Tags keep their case
// ("Thread", "Technical").
var keywordFields = []string{fieldID, fieldType, fieldPostID, fieldTags, fieldStatus, fieldFolderID, fieldLanguage}

// newMapping indexes content with the standard analyzer and no stemming,
// since posts come in any of the supported languages.
func newMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = true
	content.IncludeTermVectors = true
	doc.AddFieldMappingsAt(fieldContent, content)

	for _, name := range keywordFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		doc.AddFieldMappingsAt(name, fm)
	}

	for _, name := range []string{fieldCreated, fieldUpdated} {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		doc.AddFieldMappingsAt(name, fm)
	}

	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name
	im.DefaultMapping = doc
	return im
}
