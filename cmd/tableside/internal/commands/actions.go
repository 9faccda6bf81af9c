package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/billing"
	"github.com/appetiteclub/tableside/pkg/client"
	"github.com/appetiteclub/tableside/pkg/enums/requestkind"
	"github.com/appetiteclub/tableside/pkg/enums/role"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

// Menu lists the menu or flips one item's availability.
func Menu(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("menu")
	toggle := fs.String("toggle", "", "flip the availability of the item with this id")
	onlyAvailable := fs.Bool("available", false, "list only items guests can order")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	api := env.api()
	if *toggle != "" {
		item, err := api.ToggleMenuItem(ctx, *toggle)
		if err != nil {
			return fmt.Errorf("cannot toggle menu item: %w", err)
		}
		state := "unavailable"
		if item.IsAvailable {
			state = "available"
		}
		fmt.Fprintf(env.Out, "%s is now %s\n", item.Name, state)
		return nil
	}

	items, err := api.ListMenu(ctx)
	if err != nil {
		return fmt.Errorf("cannot list menu: %w", err)
	}
	if *onlyAvailable {
		orderable := items[:0]
		for _, it := range items {
			if it.Orderable() {
				orderable = append(orderable, it)
			}
		}
		items = orderable
	}
	RenderMenu(env.Out, items)
	return nil
}

// Login makes a guest the identity of this device at a table.
func Login(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("login")
	tableID := fs.Int("table", 0, "table number")
	phone := fs.String("phone", "", "guest phone number")
	name := fs.String("name", "", "guest name")
	prefs := fs.StringArray("pref", nil, "dietary preference, repeatable")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireTable(*tableID); err != nil {
		return err
	}

	store := env.store(*tableID, role.Roles.Guest)
	check, err := store.CheckGuest(ctx, *phone)
	if err != nil {
		return fmt.Errorf("cannot look up guest: %w", err)
	}
	if !check.Exists && strings.TrimSpace(*name) == "" {
		return errors.New("first visit: --name is required")
	}

	user, err := store.Login(ctx, *phone, *name, *prefs)
	if err != nil {
		return fmt.Errorf("cannot sign in: %w", err)
	}

	if user.VisitCount > 1 {
		fmt.Fprintf(env.Out, "Welcome back, %s (visit %d)\n", user.Name, user.VisitCount)
	} else {
		fmt.Fprintf(env.Out, "Welcome, %s\n", user.Name)
	}
	if len(user.Preferences) > 0 {
		fmt.Fprintf(env.Out, "Preferences: %s\n", strings.Join(user.Preferences, ", "))
	}
	return nil
}

// Prefs adds dietary preferences to the profile of the guest signed in at
// a table.
func Prefs(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("prefs")
	tableID := fs.Int("table", 0, "table number")
	add := fs.StringArray("add", nil, "dietary preference, repeatable")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireTable(*tableID); err != nil {
		return err
	}

	store := env.store(*tableID, role.Roles.Guest)
	if _, err := store.Recover(ctx); err != nil {
		return fmt.Errorf("cannot restore session: %w", err)
	}

	user, err := store.AddPreferences(ctx, *add)
	if err != nil {
		return fmt.Errorf("cannot update preferences: %w", err)
	}
	fmt.Fprintf(env.Out, "Preferences for %s: %s\n", user.Name, strings.Join(user.Preferences, ", "))
	return nil
}

// Order places a food order for the signed-in guest of a table.
func Order(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("order")
	tableID := fs.Int("table", 0, "table number")
	specs := fs.StringArray("item", nil, `menu item as "name-or-id[:quantity[:notes]]", repeatable`)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireTable(*tableID); err != nil {
		return err
	}
	if len(*specs) == 0 {
		return errors.New("at least one --item is required")
	}

	store := env.store(*tableID, role.Roles.Guest)
	if _, err := store.Recover(ctx); err != nil {
		return fmt.Errorf("cannot restore session: %w", err)
	}
	if err := store.RefreshMenu(ctx); err != nil {
		return fmt.Errorf("cannot load menu: %w", err)
	}

	items, err := resolveItems(store.Snapshot().Menu, *specs)
	if err != nil {
		return err
	}

	created, err := store.PlaceOrder(ctx, items)
	if err != nil {
		return fmt.Errorf("cannot place order: %w", err)
	}
	RenderTicket(env.Out, created)
	return nil
}

// Request raises a service request such as water or the bill.
func Request(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("request")
	tableID := fs.Int("table", 0, "table number")
	kindName := fs.String("kind", "", "request kind: "+kindNames())
	label := fs.String("label", "", "free text, required for custom requests")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireTable(*tableID); err != nil {
		return err
	}

	kind := requestkind.ByName(*kindName)
	if kind == nil {
		return fmt.Errorf("unknown request kind %q, want one of %s", *kindName, kindNames())
	}

	store := env.store(*tableID, role.Roles.Guest)
	if _, err := store.Recover(ctx); err != nil {
		return fmt.Errorf("cannot restore session: %w", err)
	}

	created, err := store.RequestService(ctx, *kind, *label)
	if err != nil {
		return fmt.Errorf("cannot raise request: %w", err)
	}
	RenderTicket(env.Out, created)
	return nil
}

// Status moves a ticket to another status as the given actor.
func Status(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("status")
	id := fs.String("id", "", "ticket id")
	status := fs.String("status", "", "target status: ready, served or paid")
	actorName := fs.String("role", role.Roles.Staff.Code(), "acting role: guest, kitchen, service or staff")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ticketID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid --id %q: %w", *id, err)
	}
	actor, err := parseRole(*actorName)
	if err != nil {
		return err
	}

	store := env.store(0, actor)
	if _, err := store.Refresh(ctx); err != nil {
		env.Logger.Debug("cannot refresh before update", "error", err)
	}

	updated, err := store.UpdateStatus(ctx, ticketID, strings.ToLower(strings.TrimSpace(*status)))
	if err != nil {
		return fmt.Errorf("cannot update ticket: %w%s", err, allowedHint(store, ticketID, actor))
	}
	RenderTicket(env.Out, updated)
	return nil
}

// Cancel withdraws a ticket. Guests may only cancel what the kitchen has
// not started on.
func Cancel(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("cancel")
	id := fs.String("id", "", "ticket id")
	actorName := fs.String("role", role.Roles.Guest.Code(), "acting role: guest or staff")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ticketID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid --id %q: %w", *id, err)
	}
	actor, err := parseRole(*actorName)
	if err != nil {
		return err
	}

	store := env.store(0, actor)
	if _, err := store.Refresh(ctx); err != nil {
		env.Logger.Debug("cannot refresh before cancel", "error", err)
	}

	cancelled, err := store.Cancel(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("cannot cancel ticket: %w", err)
	}
	RenderTicket(env.Out, cancelled)
	return nil
}

// Settle pays every open ticket of a table.
func Settle(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("settle")
	tableID := fs.Int("table", 0, "table number")
	coupon := fs.String("coupon", "", "coupon code")
	actorName := fs.String("role", role.Roles.Guest.Code(), "acting role: guest, service or staff")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireTable(*tableID); err != nil {
		return err
	}
	actor, err := parseRole(*actorName)
	if err != nil {
		return err
	}

	store := env.store(*tableID, actor)
	if actor == role.Roles.Guest {
		if _, err := store.Recover(ctx); err != nil {
			return fmt.Errorf("cannot restore session: %w", err)
		}
	}
	if _, err := store.Refresh(ctx); err != nil {
		return fmt.Errorf("cannot load orders: %w", err)
	}

	result, err := store.Settle(ctx, strings.TrimSpace(*coupon))
	if err != nil {
		return fmt.Errorf("cannot settle table %d: %w", *tableID, err)
	}

	fmt.Fprintf(env.Out, "Table %d settled, %d tickets paid\n\n", *tableID, result.Count)
	RenderBill(env.Out, result.Bill)
	return nil
}

// Bill previews what a table owes without paying. A coupon the table does
// not qualify for is reported and left out of the bill.
func Bill(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("bill")
	tableID := fs.Int("table", 0, "table number")
	coupon := fs.String("coupon", "", "coupon code")
	listCoupons := fs.Bool("coupons", false, "list the accepted coupons")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *listCoupons {
		for _, c := range billing.Catalog {
			fmt.Fprintf(env.Out, "%-12s %s\n", c.Code, c.Description)
		}
		return nil
	}
	if err := requireTable(*tableID); err != nil {
		return err
	}

	store := env.store(*tableID, role.Roles.Guest)
	if _, err := store.Refresh(ctx); err != nil {
		return fmt.Errorf("cannot load orders: %w", err)
	}

	bill, err := store.PreviewBill(*coupon)
	if err != nil {
		if !isCouponError(err) {
			return err
		}
		fmt.Fprintf(env.Out, "Coupon not applied: %v\n\n", err)
	}
	RenderBill(env.Out, bill)
	return nil
}

// allowedHint names the statuses actor may still move a cached ticket to.
func allowedHint(store *client.Store, id uuid.UUID, actor role.Role) string {
	for _, t := range store.Snapshot().Tickets {
		if t.ID != id {
			continue
		}
		targets := ticket.Targets(&t, actor)
		if len(targets) == 0 {
			return fmt.Sprintf(" (%s can no longer change this ticket)", actor.Code())
		}
		return fmt.Sprintf(" (allowed: %s)", strings.Join(targets, ", "))
	}
	return ""
}

func isCouponError(err error) bool {
	return errors.Is(err, billing.ErrUnknownCoupon) ||
		errors.Is(err, billing.ErrMinimumNotMet) ||
		errors.Is(err, billing.ErrNoEligibleItem) ||
		errors.Is(err, billing.ErrNoDiscount)
}

func kindNames() string {
	names := make([]string, 0, len(requestkind.All))
	for _, k := range requestkind.All {
		names = append(names, k.Code())
	}
	return strings.Join(names, ", ")
}

// parseItemSpec splits "name-or-id[:quantity[:notes]]". Quantity defaults
// to one.
func parseItemSpec(spec string) (ref string, qty int, notes string, err error) {
	parts := strings.SplitN(spec, ":", 3)
	ref = strings.TrimSpace(parts[0])
	if ref == "" {
		return "", 0, "", fmt.Errorf("item %q has no name", spec)
	}

	qty = 1
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		qty, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || qty <= 0 {
			return "", 0, "", fmt.Errorf("item %q has an invalid quantity", spec)
		}
	}
	if len(parts) > 2 {
		notes = strings.TrimSpace(parts[2])
	}
	return ref, qty, notes, nil
}

// resolveItems turns item specs into order lines priced from the menu.
// Items are matched by id first, then by name ignoring case.
func resolveItems(menu []client.MenuItem, specs []string) ([]ticket.Item, error) {
	items := make([]ticket.Item, 0, len(specs))
	for _, spec := range specs {
		ref, qty, notes, err := parseItemSpec(spec)
		if err != nil {
			return nil, err
		}

		m, ok := findMenuItem(menu, ref)
		if !ok {
			return nil, fmt.Errorf("%q is not on the menu", ref)
		}
		if !m.Orderable() {
			return nil, fmt.Errorf("%s is not available right now", m.Name)
		}

		item := ticket.Item{
			Name:     m.Name,
			Category: m.Category,
			Quantity: qty,
			Notes:    notes,
			Price:    m.Price,
		}
		if id, err := uuid.Parse(m.ID); err == nil {
			item.MenuItemID = &id
		}
		items = append(items, item)
	}
	return items, nil
}

func findMenuItem(menu []client.MenuItem, ref string) (client.MenuItem, bool) {
	for _, m := range menu {
		if m.ID == ref {
			return m, true
		}
	}
	for _, m := range menu {
		if strings.EqualFold(m.Name, ref) {
			return m, true
		}
	}
	return client.MenuItem{}, false
}
