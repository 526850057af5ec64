// Package di wires the composer's services together: logger, submission
// sink, session manager and HTTP server.
package di

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/textvault/textvault/internal/composer"
	"github.com/textvault/textvault/internal/config"
	"github.com/textvault/textvault/internal/logging"
	"github.com/textvault/textvault/internal/server"
	"github.com/textvault/textvault/internal/session"
	"github.com/textvault/textvault/internal/theme"
	"github.com/textvault/textvault/internal/vault"
)

// Service names.
const (
	ServiceLogger   = "logger"
	ServiceSink     = "sink"
	ServiceSessions = "sessions"
	ServiceServer   = "server"
)

// shutdownOrder lists services in reverse dependency order.
var shutdownOrder = []string{ServiceServer, ServiceSessions, ServiceSink, ServiceLogger}

// FactoryFunc creates a service, resolving its dependencies through resolver.
type FactoryFunc func(resolver DependencyResolver) (interface{}, error)

// DependencyResolver resolves services while a factory runs.
type DependencyResolver interface {
	Get(name string) (interface{}, error)
}

// ServiceContainer holds singleton services created on first use.
type ServiceContainer struct {
	mu          sync.Mutex
	factories   map[string]FactoryFunc
	singletons  map[string]interface{}
	config      *config.Config
	logOutput   io.Writer
	initialized bool
}

// resolver carries the names being resolved so cycles are reported instead
// of deadlocking.
type resolver struct {
	container *ServiceContainer
	resolving map[string]bool
}

func (r *resolver) Get(name string) (interface{}, error) {
	return r.container.resolveLocked(name, r.resolving)
}

// NewServiceContainer creates a container for cfg.
func NewServiceContainer(cfg *config.Config) *ServiceContainer {
	return &ServiceContainer{
		factories:  make(map[string]FactoryFunc),
		singletons: make(map[string]interface{}),
		config:     cfg,
		logOutput:  os.Stderr,
	}
}

// SetLogOutput redirects the logger. It must be called before Initialize.
func (c *ServiceContainer) SetLogOutput(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logOutput = w
}

// Register adds or replaces a service factory.
func (c *ServiceContainer) Register(name string, factory FactoryFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
	delete(c.singletons, name)
}

// RegisterInstance registers an existing value as a service.
func (c *ServiceContainer) RegisterInstance(name string, instance interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = func(DependencyResolver) (interface{}, error) { return instance, nil }
	c.singletons[name] = instance
}

// Has reports whether a service is registered.
func (c *ServiceContainer) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.factories[name]
	return ok
}

// ListServices returns the registered service names, sorted.
func (c *ServiceContainer) ListServices() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named service, creating it on first use.
func (c *ServiceContainer) Get(name string) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveLocked(name, make(map[string]bool))
}

// resolveLocked runs with c.mu held. Factories resolve their dependencies
// through the same lock holder, so creation is serialised.
func (c *ServiceContainer) resolveLocked(name string, resolving map[string]bool) (interface{}, error) {
	if instance, ok := c.singletons[name]; ok {
		return instance, nil
	}
	if resolving[name] {
		return nil, fmt.Errorf("circular dependency detected for service '%s'", name)
	}

	factory, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("service '%s' not registered", name)
	}

	resolving[name] = true
	instance, err := factory(&resolver{container: c, resolving: resolving})
	delete(resolving, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create service '%s': %w", name, err)
	}

	c.singletons[name] = instance
	return instance, nil
}

// Initialize registers the core services. Services already registered under
// a core name are kept, so tests can substitute them.
func (c *ServiceContainer) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if c.config == nil {
		return fmt.Errorf("service container has no configuration")
	}

	core := map[string]FactoryFunc{
		ServiceLogger:   c.newLogger,
		ServiceSink:     c.newSink,
		ServiceSessions: c.newSessions,
		ServiceServer:   c.newServer,
	}
	for name, factory := range core {
		if _, ok := c.factories[name]; !ok {
			c.factories[name] = factory
		}
	}

	c.initialized = true
	return nil
}

func (c *ServiceContainer) newLogger(DependencyResolver) (interface{}, error) {
	level, err := logging.ParseLevel(c.config.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: c.config.Log.Format,
		Output: c.logOutput,
	}), nil
}

func (c *ServiceContainer) newSink(r DependencyResolver) (interface{}, error) {
	logger, err := getAs[logging.Logger](r, ServiceLogger)
	if err != nil {
		return nil, err
	}

	if c.config.Vault.BaseURL == "" {
		return composer.LogSink{Logger: logger.WithComponent("sink")}, nil
	}

	client, err := vault.NewClient(vault.Options{
		BaseURL: c.config.Vault.BaseURL,
		Token:   c.config.Vault.Token,
		Timeout: c.config.Vault.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (c *ServiceContainer) newSessions(r DependencyResolver) (interface{}, error) {
	logger, err := getAs[logging.Logger](r, ServiceLogger)
	if err != nil {
		return nil, err
	}
	sink, err := getAs[composer.Sink](r, ServiceSink)
	if err != nil {
		return nil, err
	}

	mode, err := theme.ParseMode(c.config.Editor.Theme)
	if err != nil {
		return nil, err
	}

	cfg := session.DefaultConfig()
	cfg.SettleDelay = c.config.Editor.SettleDelay
	cfg.ReadySignal = c.config.Editor.ReadySignal
	cfg.Theme = mode
	cfg.Validate = c.config.Submit.Validate
	cfg.SubmitRate = c.config.Submit.Rate
	cfg.SubmitBurst = c.config.Submit.Burst

	return session.NewManager(cfg, sink, logger), nil
}

func (c *ServiceContainer) newServer(r DependencyResolver) (interface{}, error) {
	logger, err := getAs[logging.Logger](r, ServiceLogger)
	if err != nil {
		return nil, err
	}
	sink, err := getAs[composer.Sink](r, ServiceSink)
	if err != nil {
		return nil, err
	}
	sessions, err := getAs[*session.Manager](r, ServiceSessions)
	if err != nil {
		return nil, err
	}
	return server.New(c.config, sessions, sink, logger), nil
}

func getAs[T any](r DependencyResolver, name string) (T, error) {
	var zero T
	instance, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("service '%s' has type %T", name, instance)
	}
	return typed, nil
}

// Logger returns the application logger.
func (c *ServiceContainer) Logger() (logging.Logger, error) {
	return getAs[logging.Logger](c, ServiceLogger)
}

// Sink returns the submission sink: the vault client when a backend is
// configured, otherwise a sink that logs payloads.
func (c *ServiceContainer) Sink() (composer.Sink, error) {
	return getAs[composer.Sink](c, ServiceSink)
}

// Sessions returns the session manager.
func (c *ServiceContainer) Sessions() (*session.Manager, error) {
	return getAs[*session.Manager](c, ServiceSessions)
}

// Server returns the HTTP server.
func (c *ServiceContainer) Server() (*server.Server, error) {
	return getAs[*server.Server](c, ServiceServer)
}

// Shutdown stops the created services in reverse dependency order and
// forgets them.
func (c *ServiceContainer) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, name := range shutdownOrder {
		instance, ok := c.singletons[name]
		if !ok {
			continue
		}
		switch s := instance.(type) {
		case interface{ Shutdown(context.Context) error }:
			if err := s.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shutdown %s: %w", name, err))
			}
		case interface{ Shutdown() }:
			s.Shutdown()
		}
	}

	c.singletons = make(map[string]interface{})

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
