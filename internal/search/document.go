package search

import (
	"fmt"
	"strings"
	"time"

	"example.com/oilchain/internal/listview"
)

// Document is the indexed form of one record of any entity
type Document struct {
	Entity    string    `json:"entity"`
	RecordID  int64     `json:"record_id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Status    string    `json:"status,omitempty"`
	IndexedAt time.Time `json:"indexed_at"`
}

// ID is the Elasticsearch document id
func (d Document) ID() string {
	return DocumentID(d.Entity, d.RecordID)
}

// DocumentID builds the document id of a record
func DocumentID(entity string, id int64) string {
	return fmt.Sprintf("%s-%d", entity, id)
}

// BuildDocument indexes the search fields of r. The first non-empty field is the title.
func BuildDocument[T listview.Record](spec *listview.Spec[T], r T) Document {
	doc := Document{
		Entity:    spec.Entity,
		RecordID:  r.RecordID(),
		Status:    string(spec.StatusOf(r)),
		IndexedAt: time.Now().UTC(),
	}
	parts := make([]string, 0, len(spec.SearchFields))
	for _, f := range spec.SearchFields {
		v := strings.TrimSpace(f.Value(r))
		if v == "" {
			continue
		}
		if doc.Title == "" {
			doc.Title = v
		}
		parts = append(parts, v)
	}
	doc.Text = strings.Join(parts, " | ")
	return doc
}
