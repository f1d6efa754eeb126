package models

// RuntimeSnapshot is a point-in-time copy of the process-wide runtime
// configuration. Callers receive copies; mutating a snapshot never affects
// the live state.
type RuntimeSnapshot struct {
	MockMode       bool                `json:"mock_mode"`
	ProviderErrors map[Provider]string `json:"provider_errors"`
}
