package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/config"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/metrics"
	service "github.com/aaravmahajanofficial/ebike-storefront/internal/services"
	"github.com/aaravmahajanofficial/ebike-storefront/pkg/storeapi"
)

const (
	roleCustomer = "customer"
	roleAdmin    = "admin"
)

// Manager owns the live widgets and consoles. Each gets its own transport
// from the factory and is released after sitting idle for the configured TTL.
type Manager struct {
	api     storeapi.Client
	prefs   service.PreferencesService
	factory TransportFactory
	cfg     config.Chat
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	customers map[string]*CustomerWidget
	admins    map[string]*AdminConsole
	closed    bool

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewManager(api storeapi.Client, prefs service.PreferencesService, factory TransportFactory,
	cfg config.Chat, logger *slog.Logger) *Manager {

	return NewManagerWithClock(api, prefs, factory, cfg, logger, time.Now)
}

func NewManagerWithClock(api storeapi.Client, prefs service.PreferencesService, factory TransportFactory,
	cfg config.Chat, logger *slog.Logger, now func() time.Time) *Manager {

	if cfg.TypingInterval <= 0 {
		cfg.TypingInterval = 2 * time.Second
	}

	return &Manager{
		api:       api,
		prefs:     prefs,
		factory:   factory,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "chat")),
		now:       now,
		customers: make(map[string]*CustomerWidget),
		admins:    make(map[string]*AdminConsole),
		stop:      make(chan struct{}),
	}
}

// Start runs the idle janitor until Shutdown.
func (m *Manager) Start() {
	if m.cfg.IdleTTL <= 0 || m.cfg.JanitorInterval <= 0 {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.cfg.JanitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				if n := m.Sweep(context.Background()); n > 0 {
					m.logger.Info("Released idle chat clients", slog.Int("count", n))
				}
			}
		}
	}()
}

// Customer returns the widget for sessionID, creating it on first use.
func (m *Manager) Customer(sessionID string) (*CustomerWidget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errShuttingDown()
	}
	if w, ok := m.customers[sessionID]; ok {
		return w, nil
	}

	w := newCustomerWidget(sessionID, m.api, m.prefs, m.factory(), m.cfg.TypingInterval, m.logger, m.now)
	m.customers[sessionID] = w
	metrics.ActiveChatClients.WithLabelValues(roleCustomer).Set(float64(len(m.customers)))

	return w, nil
}

// Admin returns the console for adminID with token as the current bearer
// token, creating it on first use.
func (m *Manager) Admin(adminID, adminName, token string) (*AdminConsole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errShuttingDown()
	}

	a, ok := m.admins[adminID]
	if !ok {
		a = newAdminConsole(adminID, adminName, m.api, m.factory(), m.logger, m.now)
		m.admins[adminID] = a
		metrics.ActiveChatClients.WithLabelValues(roleAdmin).Set(float64(len(m.admins)))
	}
	a.SetToken(token)

	return a, nil
}

// ReleaseCustomer drops the widget for sessionID, leaving its room.
func (m *Manager) ReleaseCustomer(ctx context.Context, sessionID string) {
	m.mu.Lock()
	w, ok := m.customers[sessionID]
	delete(m.customers, sessionID)
	metrics.ActiveChatClients.WithLabelValues(roleCustomer).Set(float64(len(m.customers)))
	m.mu.Unlock()

	if ok {
		w.release(ctx)
	}
}

// Sweep releases every client idle for longer than the TTL and reports how
// many were released.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := m.now().Add(-m.cfg.IdleTTL)

	var idleCustomers []*CustomerWidget
	var idleAdmins []*AdminConsole

	m.mu.Lock()
	for id, w := range m.customers {
		if w.idleSince().Before(cutoff) {
			idleCustomers = append(idleCustomers, w)
			delete(m.customers, id)
		}
	}
	for id, a := range m.admins {
		if a.idleSince().Before(cutoff) {
			idleAdmins = append(idleAdmins, a)
			delete(m.admins, id)
		}
	}
	metrics.ActiveChatClients.WithLabelValues(roleCustomer).Set(float64(len(m.customers)))
	metrics.ActiveChatClients.WithLabelValues(roleAdmin).Set(float64(len(m.admins)))
	m.mu.Unlock()

	for _, w := range idleCustomers {
		w.release(ctx)
	}
	for _, a := range idleAdmins {
		a.release(ctx)
	}

	return len(idleCustomers) + len(idleAdmins)
}

// Shutdown stops the janitor and releases every client.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	customers := m.customers
	admins := m.admins
	m.customers = make(map[string]*CustomerWidget)
	m.admins = make(map[string]*AdminConsole)
	m.mu.Unlock()

	close(m.stop)
	m.wg.Wait()

	for _, w := range customers {
		w.release(ctx)
	}
	for _, a := range admins {
		a.release(ctx)
	}

	metrics.ActiveChatClients.WithLabelValues(roleCustomer).Set(0)
	metrics.ActiveChatClients.WithLabelValues(roleAdmin).Set(0)

	m.logger.Info("Chat clients released",
		slog.Int("customers", len(customers)),
		slog.Int("admins", len(admins)),
	)

	return ctx.Err()
}
