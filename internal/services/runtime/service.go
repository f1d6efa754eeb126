package runtime

import (
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/models"
)

// Service holds the process-wide runtime configuration: the mock/live
// toggle and the last recorded error per provider. All methods are safe
// for concurrent use.
type Service struct {
	mu             sync.RWMutex
	mockMode       bool
	providerErrors map[models.Provider]string
	logger         arbor.ILogger
}

// NewService creates a runtime configuration service with the given
// initial mock mode.
func NewService(mockMode bool, logger arbor.ILogger) *Service {
	return &Service{
		mockMode:       mockMode,
		providerErrors: make(map[models.Provider]string),
		logger:         logger,
	}
}

// IsMockMode returns the current mock/live toggle
func (s *Service) IsMockMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mockMode
}

// SetMockMode flips the mock/live toggle. Tasks already running keep the
// mode they snapshotted at dispatch time.
func (s *Service) SetMockMode(enabled bool) {
	s.mu.Lock()
	changed := s.mockMode != enabled
	s.mockMode = enabled
	s.mu.Unlock()

	if changed {
		s.logger.Info().
			Bool("mock_mode", enabled).
			Msg("Mock mode changed")
	}
}

// SetProviderError records the last failure for a provider. The message
// must already be short and credential-free.
func (s *Service) SetProviderError(provider models.Provider, message string) {
	s.mu.Lock()
	s.providerErrors[provider] = message
	s.mu.Unlock()
}

// ClearProviderErrors resets the recorded provider failures
func (s *Service) ClearProviderErrors() {
	s.mu.Lock()
	s.providerErrors = make(map[models.Provider]string)
	s.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the runtime state. The copy is
// detached; callers can read it without holding any lock.
func (s *Service) Snapshot() models.RuntimeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	errors := make(map[models.Provider]string, len(s.providerErrors))
	for provider, message := range s.providerErrors {
		errors[provider] = message
	}

	return models.RuntimeSnapshot{
		MockMode:       s.mockMode,
		ProviderErrors: errors,
	}
}
