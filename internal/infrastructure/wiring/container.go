// Package wiring owns the construction and lifecycle of every
// infrastructure component: the expectation store, its persistence and
// control-plane sync, the renderer's collaborators, and the HTTP server.
package wiring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
	"github.com/sophialabs/mimicrab/internal/domain/logstream"
	inboundhttp "github.com/sophialabs/mimicrab/internal/infrastructure/inbound/http"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/bodytemplate"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/clock"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/kubernetes"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/metrics"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/ratelimit"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/render"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/script"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/store"
	"github.com/sophialabs/mimicrab/internal/infrastructure/ports"
	"github.com/sophialabs/mimicrab/internal/infrastructure/usecases"
)

// Params holds the subset of configuration needed to construct
// infrastructure components.
type Params struct {
	ExpectationsPath string
	WatcherDebounce  time.Duration
	RateLimiterTTL   time.Duration
	ConfigMapName    string
	Namespace        string
	Logger           ports.Logger
}

// Container owns the construction and lifecycle of all infrastructure
// components wired for one running process.
type Container struct {
	logger        ports.Logger
	server        *inboundhttp.Server
	expectUC      *usecases.ExpectationsUseCase
	rateLimiter   *ratelimit.TokenBucketStore
	fileWatcher   *filesystem.Watcher
	clusterWatch  *kubernetes.ConfigMapPersister
	clusterCancel context.CancelFunc
	closeOnce     sync.Once
}

// New constructs every infrastructure component. Fallible operations run
// before goroutine-starting ones so a construction failure never leaks a
// background goroutine.
func New(p Params) (*Container, error) {
	filePersister := filesystem.NewFilePersister(p.ExpectationsPath)

	var persister store.Persister = filePersister
	var clusterPersister *kubernetes.ConfigMapPersister
	if kubernetes.InCluster() {
		cp, err := kubernetes.NewConfigMapPersister(p.Namespace, p.ConfigMapName)
		if err != nil {
			return nil, fmt.Errorf("failed to build cluster persister: %w", err)
		}
		clusterPersister = cp
		persister = &fallbackPersister{primary: cp, fallback: filePersister, logger: p.Logger}
	}

	rateLimiterStore := ratelimit.NewTokenBucketStore(p.RateLimiterTTL)

	st := store.New()
	expectUC := usecases.NewExpectationsUseCase(st, persister, p.Logger)

	deps := render.Dependencies{
		Script:       script.NewExprEvaluator(),
		BodyTemplate: bodytemplate.NewRenderer(),
		Proxy:        render.NewProxyDialer(rateLimiterStore),
		Clock:        clock.New(),
		Logger:       p.Logger,
	}
	dispatchUC := usecases.NewDispatchUseCase(st, deps, p.Logger)

	broadcaster := logstream.NewBroadcaster()
	reg := metrics.New()

	server := inboundhttp.NewServer(inboundhttp.Dependencies{
		Dispatch:     dispatchUC,
		Expectations: expectUC,
		Broadcaster:  broadcaster,
		Metrics:      reg,
		Logger:       p.Logger,
	})

	c := &Container{
		logger:       p.Logger,
		server:       server,
		expectUC:     expectUC,
		rateLimiter:  rateLimiterStore,
		clusterWatch: clusterPersister,
	}

	if clusterPersister == nil {
		watcher, err := filesystem.NewWatcher(p.ExpectationsPath, p.WatcherDebounce, p.Logger, func() {
			list, err := filePersister.Load(context.Background())
			if err != nil {
				p.Logger.Error("hot reload failed", "error", err)
				return
			}
			expectUC.ReplaceFromExternal(list)
			p.Logger.Info("hot reload complete")
		})
		if err != nil {
			p.Logger.Warn("file watcher not available", "error", err)
		} else {
			c.fileWatcher = watcher
		}
	}

	return c, nil
}

// LoadInitial loads the persisted expectation list (cluster config object,
// falling back to the local file; or the local file directly outside a
// cluster) and publishes it to the store.
func (c *Container) LoadInitial(ctx context.Context) error {
	return c.expectUC.LoadInitial(ctx)
}

// StartWatch begins background synchronization: the cluster ConfigMap
// watch when running in a cluster, or the local file watcher otherwise.
// It returns immediately; watching runs until ctx is cancelled or Close.
func (c *Container) StartWatch(ctx context.Context) {
	if c.clusterWatch != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		c.clusterCancel = cancel
		go func() {
			if err := c.clusterWatch.Watch(watchCtx, c.logger, c.expectUC.ReplaceFromExternal); err != nil {
				c.logger.Error("cluster config watch ended", "error", err)
			}
		}()
		return
	}

	if c.fileWatcher != nil {
		c.fileWatcher.Start()
	}
}

// Close releases resources held by the container. It is idempotent.
func (c *Container) Close() {
	c.closeOnce.Do(func() {
		c.rateLimiter.Stop()
		if c.clusterCancel != nil {
			c.clusterCancel()
		}
		if c.fileWatcher != nil {
			c.fileWatcher.Stop()
		}
	})
}

// Logger returns the logger passed at construction time.
func (c *Container) Logger() ports.Logger {
	return c.logger
}

// Server returns the HTTP handler serving dispatch, admin, and static UI
// traffic.
func (c *Container) Server() *inboundhttp.Server {
	return c.server
}

// fallbackPersister implements store.Persister by reading from a cluster
// config object and falling through to a local file on any load failure
// (spec §4.6), while always persisting mutations back to the cluster.
type fallbackPersister struct {
	primary  store.Persister
	fallback store.Persister
	logger   ports.Logger
}

func (f *fallbackPersister) Load(ctx context.Context) ([]expectation.Expectation, error) {
	list, err := f.primary.Load(ctx)
	if err != nil {
		f.logger.Warn("cluster config load failed, falling back to local file", "error", err)
		return f.fallback.Load(ctx)
	}
	return list, nil
}

func (f *fallbackPersister) Save(ctx context.Context, list []expectation.Expectation) error {
	return f.primary.Save(ctx, list)
}
