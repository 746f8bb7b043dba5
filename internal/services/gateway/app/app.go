package app

import (
	"log"
	"sync"
	"time"
)

type Config struct {
	ControllerBaseURL string
	EventsBaseURL     string
	HTTPTimeout       time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration

	Logger *log.Logger
}

type Gateway struct {
	cfg        Config
	controller *Upstream
	events     *Upstream

	mu         sync.Mutex
	lastEvents []Decision // ultima risposta valida dell'event-service
}

func NewGateway(cfg Config) *Gateway {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 3 * time.Second
	}
	// Un breaker per ciascun upstream
	c := NewUpstream("controller", cfg.ControllerBaseURL, cfg.HTTPTimeout, cfg.BreakerFailures, cfg.BreakerOpenFor)
	e := NewUpstream("events", cfg.EventsBaseURL, cfg.HTTPTimeout, cfg.BreakerFailures, cfg.BreakerOpenFor)

	return &Gateway{cfg: cfg, controller: c, events: e}
}
