package service

import (
	"sync"

	"github.com/fundedlabs/propgate/internal/config"
	"github.com/fundedlabs/propgate/internal/model"
	"golang.org/x/time/rate"
)

// ClientManager holds the API clients and a token-bucket limiter per client.
type ClientManager struct {
	mu            sync.RWMutex
	clients       map[string]*model.Client // key: API key
	limiters      map[string]*rate.Limiter // key: client ID
	defaultClient *model.Client
}

func NewClientManager(cfg *config.Config) *ClientManager {
	cm := &ClientManager{
		clients:  make(map[string]*model.Client),
		limiters: make(map[string]*rate.Limiter),
	}

	defaultClient := &model.Client{
		ID:     "dashboard",
		Name:   "Dashboard Frontend",
		APIKey: cfg.Auth.APIKey,
		Rate: model.RateLimitConfig{
			QPS:   cfg.Rate.QPS,
			Burst: cfg.Rate.Burst,
		},
	}
	cm.Register(defaultClient)
	cm.defaultClient = defaultClient

	if cfg.Auth.AdminKey != "" {
		cm.Register(&model.Client{
			ID:     "admin",
			Name:   "Admin Console",
			APIKey: cfg.Auth.AdminKey,
			Admin:  true,
			Rate: model.RateLimitConfig{
				QPS:   cfg.Rate.QPS,
				Burst: cfg.Rate.Burst,
			},
		})
	}

	return cm
}

func (cm *ClientManager) Register(c *model.Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if c == nil {
		return
	}
	cm.clients[c.APIKey] = c

	limit := rate.Limit(c.Rate.QPS)
	if limit == 0 {
		limit = rate.Inf
	}
	burst := c.Rate.Burst
	if burst == 0 {
		burst = 1
	}
	cm.limiters[c.ID] = rate.NewLimiter(limit, burst)
}

func (cm *ClientManager) GetByAPIKey(apiKey string) (*model.Client, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c, ok := cm.clients[apiKey]
	return c, ok
}

func (cm *ClientManager) Default() *model.Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.defaultClient
}

func (cm *ClientManager) LimiterFor(clientID string) *rate.Limiter {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.limiters[clientID]
}
