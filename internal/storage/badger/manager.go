package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
	"github.com/ternarybob/linklens/internal/interfaces"
)

// Manager groups the Badger-backed stores behind one connection
type Manager struct {
	db        *BadgerDB
	campaigns interfaces.CampaignStorage
	backlinks interfaces.BacklinkStorage
	serp      interfaces.SerpStorage
	tasks     interfaces.TaskStorage
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		campaigns: NewCampaignStorage(db, logger),
		backlinks: NewBacklinkStorage(db, logger),
		serp:      NewSerpStorage(db, logger),
		tasks:     NewTaskStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// CampaignStorage returns the campaign storage interface
func (m *Manager) CampaignStorage() interfaces.CampaignStorage {
	return m.campaigns
}

// BacklinkStorage returns the backlink record storage interface
func (m *Manager) BacklinkStorage() interfaces.BacklinkStorage {
	return m.backlinks
}

// SerpStorage returns the SERP ranking storage interface
func (m *Manager) SerpStorage() interfaces.SerpStorage {
	return m.serp
}

// TaskStorage returns the task snapshot storage interface
func (m *Manager) TaskStorage() interfaces.TaskStorage {
	return m.tasks
}

// Close closes the underlying database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
