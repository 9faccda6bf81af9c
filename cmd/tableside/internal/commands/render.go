package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/analytics"
	"github.com/appetiteclub/tableside/pkg/billing"
	"github.com/appetiteclub/tableside/pkg/client"
	"github.com/appetiteclub/tableside/pkg/enums/requestkind"
	"github.com/appetiteclub/tableside/pkg/ticket"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	offlineStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

func urgencyStyle(u ticket.Urgency) lipgloss.Style {
	switch u {
	case ticket.UrgencyCritical:
		return criticalStyle
	case ticket.UrgencyWarning:
		return warningStyle
	default:
		return normalStyle
	}
}

// waitLabel renders the minutes since a ticket was placed, colored by how
// long it has been waiting. Late tickets are flagged.
func waitLabel(t *ticket.Ticket, now time.Time) string {
	label := fmt.Sprintf("%dm", ticket.ElapsedMinutes(t, now))
	if ticket.IsLate(t, now) {
		label += " LATE"
	}
	return urgencyStyle(ticket.UrgencyOf(t, now)).Render(label)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// describe summarises what a ticket asks for in one line.
func describe(t *ticket.Ticket) string {
	if t.IsRequest() {
		if t.Request == nil {
			return "request"
		}
		if t.Request.Label != "" {
			return t.Request.Label
		}
		if k := requestkind.ByName(t.Request.Kind); k != nil {
			return k.Label()
		}
		return t.Request.Kind
	}

	parts := make([]string, 0, len(t.Items))
	for _, it := range t.Items {
		part := fmt.Sprintf("%dx %s", it.Quantity, it.Name)
		if it.Notes != "" {
			part += " (" + it.Notes + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func writeHeader(w io.Writer, title string, state client.State) {
	fmt.Fprintln(w, titleStyle.Render(title))
	if state.Offline {
		fmt.Fprintln(w, offlineStyle.Render("offline: showing the last successful poll"))
	}
	fmt.Fprintln(w)
}

// RenderQueue prints a kitchen or service queue. The wait column stays last
// so its color codes do not disturb the alignment.
func RenderQueue(w io.Writer, title string, state client.State, queue []ticket.Ticket, now time.Time) {
	writeHeader(w, title, state)
	if len(queue) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("nothing waiting"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTABLE\tGUEST\tORDER\tSTATUS\tWAIT")
	for i := range queue {
		t := &queue[i]
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.TableID, t.GuestName, describe(t),
			ticket.DisplayStatus(t, state.Cooking), waitLabel(t, now))
	}
	tw.Flush()
}

// RenderTracker prints a table's tickets the way the guest sees them, with
// the running bill for whatever is still open.
func RenderTracker(w io.Writer, state client.State, bill billing.Bill, now time.Time) {
	title := fmt.Sprintf("Table %d", state.TableID)
	if state.User != nil {
		title += " - " + state.User.Name
	}
	writeHeader(w, title, state)

	tickets := ticket.GuestTickets(state.Tickets, state.TableID, state.Cooking)
	if len(tickets) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no orders yet"))
		return
	}

	if current := ticket.CurrentOrder(state.Tickets, state.TableID); current != nil {
		fmt.Fprintf(w, "Current order %s for %s: %s\n\n",
			shortID(current.ID), current.GuestName, ticket.DisplayStatus(current, state.Cooking))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORDER\tTOTAL\tSTATUS\tWAIT")
	for i := range tickets {
		t := &tickets[i]
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n",
			shortID(t.ID), describe(t), t.TotalAmount,
			ticket.DisplayStatus(t, state.Cooking), waitLabel(t, now))
	}
	tw.Flush()

	fmt.Fprintln(w)
	RenderBill(w, bill)
}

func RenderBill(w io.Writer, bill billing.Bill) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Subtotal\t%.2f\t\n", bill.Subtotal)
	if bill.Discount > 0 {
		fmt.Fprintf(tw, "Discount (%s)\t-%.2f\t\n", bill.CouponCode, bill.Discount)
	}
	fmt.Fprintf(tw, "Tax\t%.2f\t\n", bill.Tax)
	fmt.Fprintf(tw, "Service charge\t%.2f\t\n", bill.ServiceCharge)
	fmt.Fprintf(tw, "Total\t%.2f\t\n", bill.Total)
	tw.Flush()
}

func RenderSummary(w io.Writer, state client.State, s analytics.Summary) {
	writeHeader(w, "Manager", state)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Revenue\t%.2f\n", s.Revenue)
	fmt.Fprintf(tw, "Paid orders\t%d\n", s.PaidOrders)
	fmt.Fprintf(tw, "Average order\t%.2f\n", s.AverageOrderValue)
	fmt.Fprintf(tw, "Active orders\t%d\n", s.ActiveOrders)
	if s.BestSeller != nil {
		fmt.Fprintf(tw, "Best seller\t%s (%d sold)\n", s.BestSeller.Name, s.BestSeller.Quantity)
	}
	tw.Flush()

	if len(s.Recent) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Recent payments"))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i := range s.Recent {
		t := &s.Recent[i]
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.2f\n", t.UpdatedAt.Local().Format("15:04"), t.TableID, t.GuestName, t.TotalAmount)
	}
	tw.Flush()
}

func RenderMenu(w io.Writer, items []client.MenuItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("the menu is empty"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tNAME\tPRICE\tDIET\tAVAILABLE")
	for _, it := range items {
		available := "yes"
		switch {
		case !it.IsAvailable:
			available = "no"
		case !it.Orderable():
			available = "sold out"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n", it.ID, it.Category, it.Name, it.Price, it.DietaryType, available)
	}
	tw.Flush()
}

func RenderTicket(w io.Writer, t *ticket.Ticket) {
	fmt.Fprintf(w, "%s  table %d  %s  %s  %.2f\n", t.ID, t.TableID, t.Status, describe(t), t.TotalAmount)
}
