package agent

import (
	"sync"

	"github.com/dmitrijs2005/sketchsync/internal/models"
)

// docIndex is the in-memory view of all tracked documents, addressable by
// local ID and by title (titles double as sketch file names).
type docIndex struct {
	mu      sync.Mutex
	byID    map[string]*models.Document
	byTitle map[string]*models.Document
}

func newDocIndex() *docIndex {
	return &docIndex{
		byID:    map[string]*models.Document{},
		byTitle: map[string]*models.Document{},
	}
}

func (x *docIndex) add(doc *models.Document) {
	title := doc.Snapshot().Title
	x.mu.Lock()
	defer x.mu.Unlock()
	x.byID[doc.ID] = doc
	x.byTitle[title] = doc
}

func (x *docIndex) get(title string) *models.Document {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.byTitle[title]
}

// removeByTitle unindexes and returns the document named title, nil when
// unknown.
func (x *docIndex) removeByTitle(title string) *models.Document {
	x.mu.Lock()
	defer x.mu.Unlock()
	doc, ok := x.byTitle[title]
	if !ok {
		return nil
	}
	delete(x.byTitle, title)
	delete(x.byID, doc.ID)
	return doc
}

// removeByID unindexes and returns the document, nil when unknown.
func (x *docIndex) removeByID(id string) *models.Document {
	x.mu.Lock()
	defer x.mu.Unlock()
	doc, ok := x.byID[id]
	if !ok {
		return nil
	}
	delete(x.byID, id)
	title := doc.Snapshot().Title
	if x.byTitle[title] == doc {
		delete(x.byTitle, title)
	}
	return doc
}

func (x *docIndex) all() []*models.Document {
	x.mu.Lock()
	defer x.mu.Unlock()
	docs := make([]*models.Document, 0, len(x.byID))
	for _, doc := range x.byID {
		docs = append(docs, doc)
	}
	return docs
}

func (x *docIndex) len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.byID)
}
