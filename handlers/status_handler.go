package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/services/audit"
	"github.com/upb/media-gateway/services/providers"
	"github.com/upb/media-gateway/services/routing"
	"github.com/upb/media-gateway/utils"
)

// AuditStatser reports audit writer statistics
type AuditStatser interface {
	GetStats() audit.Stats
}

// ProviderStatus describes one registered provider
type ProviderStatus struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Configured bool   `json:"configured"`
}

// ProfileStatus describes one routing profile
type ProfileStatus struct {
	Name  string   `json:"name"`
	Order []string `json:"order"`
}

// StatusResponse is the body of GET /api/v1/status
type StatusResponse struct {
	Providers []ProviderStatus `json:"providers"`
	Profiles  []ProfileStatus  `json:"profiles"`
	Audit     *audit.Stats     `json:"audit,omitempty"`
	Uptime    string           `json:"uptime"`
}

// StatusHandler reports gateway configuration
type StatusHandler struct {
	registry   *providers.Registry
	configured map[string]bool
	profiles   []routing.Profile
	audit      AuditStatser
	startedAt  time.Time
	logger     *zap.Logger
}

// NewStatusHandler creates a new StatusHandler. auditStats may be nil.
func NewStatusHandler(registry *providers.Registry, configured []string, profiles []routing.Profile, auditStats AuditStatser, logger *zap.Logger) *StatusHandler {
	configuredSet := make(map[string]bool, len(configured))
	for _, name := range configured {
		configuredSet[name] = true
	}
	return &StatusHandler{
		registry:   registry,
		configured: configuredSet,
		profiles:   profiles,
		audit:      auditStats,
		startedAt:  time.Now(),
		logger:     logger,
	}
}

// HandleStatus handles GET /api/v1/status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Providers: make([]ProviderStatus, 0, h.registry.GetProviderCount()),
		Profiles:  make([]ProfileStatus, 0, len(h.profiles)),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
	}

	for _, name := range h.registry.ListProviders() {
		provider, err := h.registry.GetProvider(name)
		if err != nil {
			continue
		}
		response.Providers = append(response.Providers, ProviderStatus{
			Name:       name,
			Model:      provider.Model(),
			Configured: h.configured[name],
		})
	}

	for _, profile := range h.profiles {
		response.Profiles = append(response.Profiles, ProfileStatus{
			Name:  profile.Name,
			Order: profile.Order,
		})
	}

	if h.audit != nil {
		stats := h.audit.GetStats()
		response.Audit = &stats
	}

	_ = utils.WriteData(w, response, nil)
}
