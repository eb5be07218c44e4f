// README: Reply rendering; the message shapes agents and admins see.
package chat

import (
	"fmt"
	"sort"
	"strings"

	"statusbot/internal/modules/order"
	"statusbot/internal/modules/vocab"
	"statusbot/internal/types"
)

const (
	genericFailure = "Something went wrong, please try again."
	adminOnly      = "Only admins can use this command."
	helpText       = "Send an order number to get its status, or update orders in the group with \"<numbers> <status>\"."
)

const timeLayout = "15:04"

func renderRecord(id types.ID, rec *order.Record) string {
	latest := rec.Latest()
	return fmt.Sprintf("Order %s\nStatus: %s\nUpdated by: %s\nAt: %s",
		id, rec.Status, latest.ActorName, latest.Timestamp.In(order.BusinessZone).Format(timeLayout))
}

func renderApply(res order.ApplyResult, actor types.Actor) []Reply {
	var replies []Reply
	if len(res.Updated) > 0 {
		replies = append(replies, Reply{
			Text:      fmt.Sprintf("Updated %d order(s): %s by %s", len(res.Updated), joinIDs(res.Updated), actor.Name),
			Ephemeral: true,
		})
	}
	for _, rej := range res.Rejected {
		switch rej.Reason {
		case order.ReasonAlreadyCompleted:
			replies = append(replies, Reply{
				Text: fmt.Sprintf("Order %s is already completed by %s.", rej.ID, rej.CompletedBy),
			})
		default:
			replies = append(replies, Reply{
				Text: fmt.Sprintf("Order %s could not be updated.", rej.ID),
			})
		}
	}
	return replies
}

func renderBulkDone(res order.ApplyResult, actor types.Actor) string {
	return fmt.Sprintf("Closed %d order(s) for %s: %s", len(res.Updated), actor.Name, joinIDs(res.Updated))
}

func renderEscalation(ids []types.ID, actor types.Actor) string {
	return fmt.Sprintf("No answer reported by %s for order(s): %s", actor.Name, joinIDs(ids))
}

func renderMyOrders(orders []order.ListedOrder, actor types.Actor) string {
	if len(orders) == 0 {
		return "You have no order updates yet."
	}
	lines := []string{fmt.Sprintf("Orders updated by %s:", actor.Name)}
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("%s - %s - %s",
			o.ID, o.Record.Status, o.Record.Timestamp.In(order.BusinessZone).Format(timeLayout)))
	}
	return strings.Join(lines, "\n")
}

func renderHistory(recent []order.ListedOrder) string {
	if len(recent) == 0 {
		return "No order history yet."
	}
	lines := make([]string, 0, len(recent))
	for _, o := range recent {
		latest := o.Record.Latest()
		lines = append(lines, fmt.Sprintf("%s - %s - %s - %s",
			o.ID, o.Record.Status, latest.ActorName, latest.Timestamp.In(order.BusinessZone).Format(timeLayout)))
	}
	return strings.Join(lines, "\n")
}

func renderStats(stats order.Stats) string {
	lines := []string{
		fmt.Sprintf("Today: %d order(s) updated", stats.Total),
		fmt.Sprintf("Completed: %d | In progress: %d | No answer: %d",
			stats.Completed, stats.InProgress, stats.Escalated),
	}
	for _, actor := range sortedActors(stats.PerActor) {
		lines = append(lines, fmt.Sprintf("%s - %d order(s)", actor, stats.PerActor[actor]))
	}
	return strings.Join(lines, "\n")
}

func renderUndo(id types.ID, restored vocab.Status) string {
	return fmt.Sprintf("Order %s reverted to: %s", id, restored)
}

func joinIDs(ids []types.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func sortedActors(perActor map[string]int) []string {
	actors := make([]string, 0, len(perActor))
	for a := range perActor {
		actors = append(actors, a)
	}
	sort.Strings(actors)
	return actors
}
