package transit

import (
	"fmt"
	"sync"
	"time"

	"openfahrplan.dev/transit/parse"
	"openfahrplan.dev/transit/storage"
)

// Manager builds routers out of stored feeds. Each feed's router is
// built once and cached until LoadParsed replaces the feed, and it is
// published whole: callers either see nil or
// a fully constructed, immutable Router. No locks on the query path.
type Manager struct {
	storage storage.Storage

	mutex   sync.Mutex
	routers map[string]*Router
}

func NewManager(s storage.Storage) *Manager {
	return &Manager{
		storage: s,
		routers: map[string]*Router{},
	}
}

// Load reads the named feed from storage and returns its router,
// building feed container and index on first use.
func (m *Manager) Load(name string) (*Router, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if router, ok := m.routers[name]; ok {
		return router, nil
	}

	reader, err := m.storage.GetReader(name)
	if err != nil {
		return nil, fmt.Errorf("getting reader for %s: %w", name, err)
	}

	feed, err := NewFeed(reader)
	if err != nil {
		return nil, fmt.Errorf("loading feed %s: %w", name, err)
	}

	router := NewRouter(feed)
	m.routers[name] = router

	return router, nil
}

// LoadParsed parses a zipped GTFS dump into storage under the given
// name, records its metadata, and returns the router for it.
func (m *Manager) LoadParsed(name string, buf []byte) (*Router, error) {
	writer, err := m.storage.GetWriter(name)
	if err != nil {
		return nil, fmt.Errorf("getting writer for %s: %w", name, err)
	}

	metadata, err := parse.ParseStatic(writer, buf)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", name, err)
	}

	metadata.Name = name
	metadata.RetrievedAt = time.Now()
	err = m.storage.WriteFeedMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("writing metadata for %s: %w", name, err)
	}

	m.mutex.Lock()
	delete(m.routers, name)
	m.mutex.Unlock()

	return m.Load(name)
}

// Feeds lists metadata for all stored feeds.
func (m *Manager) Feeds() ([]*storage.FeedMetadata, error) {
	return m.storage.ListFeeds()
}
