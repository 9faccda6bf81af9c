package client

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"
)

const (
	DefaultOrderInterval = 3 * time.Second
	DefaultMenuInterval  = 10 * time.Second
)

// Poller drives a Store on fixed timers. A failed tick is simply retried on
// the next one: there is no backoff and no retry limit.
type Poller struct {
	store         *Store
	logger        apt.Logger
	orderInterval time.Duration
	menuInterval  time.Duration
	nudge         chan struct{}
	onRefresh     func(State, []Event)
}

type PollerOption func(*Poller)

func WithIntervals(orders, menu time.Duration) PollerOption {
	return func(p *Poller) {
		if orders > 0 {
			p.orderInterval = orders
		}
		if menu > 0 {
			p.menuInterval = menu
		}
	}
}

// OnRefresh registers a callback run after every order poll, failed or not.
func OnRefresh(fn func(State, []Event)) PollerOption {
	return func(p *Poller) {
		p.onRefresh = fn
	}
}

func WithPollerLogger(logger apt.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPoller(store *Store, opts ...PollerOption) *Poller {
	p := &Poller{
		store:         store,
		logger:        apt.NewNoopLogger(),
		orderInterval: DefaultOrderInterval,
		menuInterval:  DefaultMenuInterval,
		nudge:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Nudge asks for an order poll right away. Nudges arriving while one is
// pending collapse into it.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done. The first order and menu polls happen
// immediately.
func (p *Poller) Run(ctx context.Context) error {
	orders := time.NewTicker(p.orderInterval)
	defer orders.Stop()
	menu := time.NewTicker(p.menuInterval)
	defer menu.Stop()

	p.pollMenu(ctx)
	p.pollOrders(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-orders.C:
			p.pollOrders(ctx)
		case <-p.nudge:
			p.pollOrders(ctx)
		case <-menu.C:
			p.pollMenu(ctx)
		}
	}
}

func (p *Poller) pollOrders(ctx context.Context) {
	events, err := p.store.Refresh(ctx)
	if err != nil {
		p.logger.Debug("order poll failed, retrying on next tick", "error", err)
	}
	if p.onRefresh != nil {
		p.onRefresh(p.store.Snapshot(), events)
	}
}

func (p *Poller) pollMenu(ctx context.Context) {
	if err := p.store.RefreshMenu(ctx); err != nil {
		p.logger.Debug("menu poll failed, retrying on next tick", "error", err)
	}
}
