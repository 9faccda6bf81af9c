package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/appetiteclub/tableside/pkg"
	"github.com/appetiteclub/tableside/pkg/analytics"
	"github.com/appetiteclub/tableside/pkg/client"
	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

const clearScreen = "\033[H\033[2J"

type liveOptions struct {
	once     bool
	interval time.Duration
	table    int
}

type frameFunc func(w io.Writer, store *client.Store, now time.Time)

func liveFlags(fs *pflag.FlagSet) *liveOptions {
	opts := &liveOptions{}
	fs.BoolVar(&opts.once, "once", false, "print a single frame and exit")
	fs.DurationVar(&opts.interval, "interval", client.DefaultOrderInterval, "order poll period")
	return opts
}

// Kitchen shows food tickets waiting to be cooked, oldest first, and rings
// the terminal bell when new tickets arrive.
func Kitchen(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("kitchen")
	opts := liveFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	store := env.store(0, role.Roles.Kitchen, client.WithNotifier(env.bell))
	return runLive(ctx, env, opts, store, func(w io.Writer, store *client.Store, now time.Time) {
		state := store.Snapshot()
		RenderQueue(w, "Kitchen", state, ticket.KitchenQueue(state.Tickets), now)
	})
}

// Service shows what waiters must act on.
func Service(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("service")
	opts := liveFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	store := env.store(0, role.Roles.Service, client.WithNotifier(env.bell))
	return runLive(ctx, env, opts, store, func(w io.Writer, store *client.Store, now time.Time) {
		state := store.Snapshot()
		RenderQueue(w, "Service", state, ticket.ServiceQueue(state.Tickets), now)
	})
}

// Tracker follows one table as its guest sees it.
func Tracker(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("tracker")
	opts := liveFlags(fs)
	fs.IntVar(&opts.table, "table", 0, "table number")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireTable(opts.table); err != nil {
		return err
	}

	store := env.store(opts.table, role.Roles.Guest)
	if _, err := store.Recover(ctx); err != nil {
		env.Logger.Info("cannot recover guest session", "table_id", opts.table, "error", err)
	}

	return runLive(ctx, env, opts, store, func(w io.Writer, store *client.Store, now time.Time) {
		bill, err := store.PreviewBill("")
		if err != nil {
			env.Logger.Debug("cannot preview bill", "error", err)
		}
		RenderTracker(w, store.Snapshot(), bill, now)
	})
}

// Manager shows revenue and best sellers over every ticket on record.
func Manager(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("manager")
	opts := liveFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	store := env.store(0, role.Roles.Staff)
	return runLive(ctx, env, opts, store, func(w io.Writer, store *client.Store, now time.Time) {
		state := store.Snapshot()
		RenderSummary(w, state, analytics.Summarize(state.Tickets))
	})
}

func runLive(ctx context.Context, env *Env, opts *liveOptions, store *client.Store, frame frameFunc) error {
	draw := func() {
		var buf bytes.Buffer
		if !opts.once {
			buf.WriteString(clearScreen)
		}
		frame(&buf, store, env.Now())
		if _, err := env.Out.Write(buf.Bytes()); err != nil {
			env.Logger.Debug("cannot draw frame", "error", err)
		}
	}

	if opts.once {
		if err := store.RefreshMenu(ctx); err != nil {
			env.Logger.Debug("cannot load menu", "error", err)
		}
		if _, err := store.Refresh(ctx); err != nil {
			return fmt.Errorf("cannot load orders: %w", err)
		}
		draw()
		return nil
	}

	poller := client.NewPoller(store,
		client.WithIntervals(opts.interval, 0),
		client.WithPollerLogger(env.Logger),
		client.OnRefresh(func(client.State, []client.Event) { draw() }),
	)

	closeSub, err := env.subscribeNudges(ctx, poller)
	if err != nil {
		env.Logger.Info("live updates unavailable, polling only", "error", err)
	} else if closeSub != nil {
		defer closeSub()
	}

	return poller.Run(ctx)
}

// subscribeNudges refreshes the poller as soon as the order service
// announces a ticket change or a settlement. It is a no-op when nats.url is
// not set.
func (e *Env) subscribeNudges(ctx context.Context, poller *client.Poller) (func() error, error) {
	natsURL, _ := e.Config.GetString("nats.url")
	if natsURL == "" {
		return nil, nil
	}

	sub, err := pkg.NewNATSSubscriber(natsURL, e.Logger)
	if err != nil {
		return nil, err
	}

	nudge := func(ctx context.Context, msg []byte) error {
		poller.Nudge()
		return nil
	}
	for _, topic := range []string{pkg.TicketsTopic, pkg.TablesTopic} {
		if err := sub.Subscribe(ctx, topic, nudge); err != nil {
			sub.Close()
			return nil, err
		}
	}
	return sub.Close, nil
}

func (e *Env) bell(events []client.Event) {
	if client.HasNewTickets(events) {
		fmt.Fprint(e.Out, "\a")
	}
}
