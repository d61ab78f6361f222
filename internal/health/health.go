package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DMarby/instafilter/internal/cache"
	"github.com/DMarby/instafilter/internal/database"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/storage"
)

const checkInterval = 10 * time.Second
const checkTimeout = 8 * time.Second

const (
	healthy   = "healthy"
	unhealthy = "unhealthy"
	unknown   = "unknown"
)

// Checker is a periodic health checker
type Checker struct {
	Ctx      context.Context
	Storage  storage.Provider
	PhotoID  string // Photo to fetch from storage. Only needed for checking storage health
	Database database.Provider
	Cache    cache.Provider
	Log      *logger.Logger

	status Status
	mutex  sync.RWMutex
}

// Status contains the healtcheck status
type Status struct {
	Healthy  bool   `json:"healthy"`
	Cache    string `json:"cache,omitempty"`
	Database string `json:"database,omitempty"`
	Storage  string `json:"storage,omitempty"`
}

type probe struct {
	result *string
	check  func(ctx context.Context) error
}

// Run runs a check immediately, then keeps checking periodically until Ctx is cancelled
func (c *Checker) Run() {
	ticker := time.NewTicker(checkInterval)
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.runCheck()
			case <-c.Ctx.Done():
				return
			}
		}
	}()

	c.runCheck()
}

// Status returns the status of the health checks
func (c *Checker) Status() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.status
}

func (c *Checker) runCheck() {
	ctx, cancel := context.WithTimeout(c.Ctx, checkTimeout)
	defer cancel()

	channel := make(chan Status, 1)
	go c.check(ctx, channel)

	var status Status
	select {
	case <-ctx.Done():
		status = c.initialStatus()
		status.Healthy = false
		c.Log.Errorw("healthcheck timed out")
	case status = <-channel:
		if !status.Healthy {
			c.Log.Errorw("healthcheck error",
				"status", status,
			)
		}
	}

	c.mutex.Lock()
	c.status = status
	c.mutex.Unlock()
}

func (c *Checker) initialStatus() Status {
	status := Status{Healthy: true}
	if c.Database != nil {
		status.Database = unknown
	}
	if c.Cache != nil {
		status.Cache = unknown
	}
	if c.Storage != nil {
		status.Storage = unknown
	}

	return status
}

func (c *Checker) probes(status *Status) []probe {
	var probes []probe

	if c.Database != nil {
		probes = append(probes, probe{&status.Database, func(ctx context.Context) error {
			_, err := c.Database.List(ctx, 0, 1)
			return err
		}})
	}

	if c.Cache != nil {
		probes = append(probes, probe{&status.Cache, func(ctx context.Context) error {
			// Nothing is ever stored under this key, so anything but a miss means the cache is broken
			_, err := c.Cache.Get(ctx, "healthcheck")
			if errors.Is(err, cache.ErrNotFound) {
				return nil
			}
			if err == nil {
				return errors.New("unexpected cache hit")
			}
			return err
		}})
	}

	if c.Storage != nil {
		probes = append(probes, probe{&status.Storage, func(ctx context.Context) error {
			_, err := c.Storage.Get(ctx, storage.PhotoKey(c.PhotoID))
			return err
		}})
	}

	return probes
}

func (c *Checker) check(ctx context.Context, channel chan<- Status) {
	status := c.initialStatus()

	for _, p := range c.probes(&status) {
		if ctx.Err() != nil {
			return
		}

		if err := p.check(ctx); err != nil {
			status.Healthy = false
			*p.result = unhealthy
		} else {
			*p.result = healthy
		}
	}

	channel <- status
}
