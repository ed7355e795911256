package services

import (
	"sync"

	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/clients/swaprouter"
)

// Capabilities holds the injected oracle and router. The admin surface can
// rotate either at runtime; readers always see a complete implementation.
type Capabilities struct {
	mu     sync.RWMutex
	oracle oracle.PriceOracle
	router swaprouter.SwapRouter
}

func NewCapabilities(priceOracle oracle.PriceOracle, router swaprouter.SwapRouter) *Capabilities {
	return &Capabilities{oracle: priceOracle, router: router}
}

func (c *Capabilities) Oracle() oracle.PriceOracle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.oracle
}

func (c *Capabilities) Router() swaprouter.SwapRouter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.router
}

func (c *Capabilities) RotateOracle(priceOracle oracle.PriceOracle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.oracle = priceOracle
}

func (c *Capabilities) RotateRouter(router swaprouter.SwapRouter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.router = router
}
