// README: Router tests with a fake notifier and file-backed store.
package chat

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"statusbot/internal/modules/order"
	"statusbot/internal/modules/vocab"
	"statusbot/internal/parse"
	"statusbot/internal/types"
)

const testGroupID int64 = -1009999

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (f *fakeNotifier) NotifyAdmins(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, text)
	return nil
}

func newTestRouter(t *testing.T) (*Router, *fakeNotifier) {
	t.Helper()
	store := order.NewStore(order.NewFileBackend(filepath.Join(t.TempDir(), "orders.json")))
	svc := order.NewService(store)
	notifier := &fakeNotifier{}
	settings := func() Settings {
		return Settings{
			GroupID:      testGroupID,
			Admins:       map[string]bool{"admin1": true},
			Vocab:        vocab.Default(),
			Policy:       parse.DefaultPolicy(),
			HistoryLimit: 10,
		}
	}
	return NewRouter(svc, settings, notifier, zap.NewNop()), notifier
}

func groupMsg(actor types.Actor, text string) Message {
	return Message{ChatID: testGroupID, Actor: actor, Text: text}
}

func privateMsg(actor types.Actor, text string) Message {
	return Message{ChatID: 12345, Actor: actor, Text: text}
}

var (
	agentAlice = types.Actor{ID: "a1", Name: "Alice"}
	adminUser  = types.Actor{ID: "admin1", Name: "Boss"}
)

func TestHandleUpdateAndLookup(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx := context.Background()

	replies := r.Handle(ctx, groupMsg(agentAlice, "1001,1002 out"))
	if len(replies) != 1 {
		t.Fatalf("replies = %+v, want one confirmation", replies)
	}
	if !replies[0].Ephemeral {
		t.Error("confirmation should be ephemeral")
	}
	if !strings.Contains(replies[0].Text, "2 order(s)") {
		t.Errorf("confirmation = %q", replies[0].Text)
	}

	replies = r.Handle(ctx, privateMsg(agentAlice, "1001"))
	if len(replies) != 1 {
		t.Fatalf("lookup replies = %+v", replies)
	}
	if !strings.Contains(replies[0].Text, string(vocab.StatusOut)) ||
		!strings.Contains(replies[0].Text, "Alice") {
		t.Errorf("lookup reply = %q", replies[0].Text)
	}
}

func TestHandleLookupNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	replies := r.Handle(context.Background(), privateMsg(agentAlice, "4040"))
	if len(replies) != 1 || replies[0].Text != "No record found for this order." {
		t.Fatalf("replies = %+v", replies)
	}
}

func TestHandleIgnoresChatter(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx := context.Background()
	for _, text := range []string{
		"good morning all",
		"1001 maybe", // unknown status word
		"",
		"/unknowncommand",
	} {
		if replies := r.Handle(ctx, groupMsg(agentAlice, text)); replies != nil {
			t.Errorf("Handle(%q) = %+v, want silence", text, replies)
		}
	}
}

func TestHandleUpdatesOnlyInGroup(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx := context.Background()

	if replies := r.Handle(ctx, privateMsg(agentAlice, "1001 out")); replies != nil {
		t.Fatalf("update outside group should be ignored, got %+v", replies)
	}
	if replies := r.Handle(ctx, privateMsg(agentAlice, "done")); replies != nil {
		t.Fatalf("bulk done outside group should be ignored, got %+v", replies)
	}
	// The order was never created.
	if replies := r.Handle(ctx, privateMsg(agentAlice, "1001")); replies[0].Text != "No record found for this order." {
		t.Fatalf("lookup = %+v", replies)
	}
}

func TestHandleEscalationNotifiesAdmins(t *testing.T) {
	r, notifier := newTestRouter(t)
	ctx := context.Background()

	r.Handle(ctx, groupMsg(agentAlice, "1001 no"))
	if len(notifier.sent) != 1 {
		t.Fatalf("notifications = %v, want 1", notifier.sent)
	}
	if !strings.Contains(notifier.sent[0], "1001") || !strings.Contains(notifier.sent[0], "Alice") {
		t.Errorf("notification = %q", notifier.sent[0])
	}
}

func TestHandleNotifierFailureDoesNotLoseUpdate(t *testing.T) {
	r, notifier := newTestRouter(t)
	notifier.fail = context.DeadlineExceeded
	ctx := context.Background()

	replies := r.Handle(ctx, groupMsg(agentAlice, "1001 no"))
	if len(replies) == 0 {
		t.Fatal("update should still confirm")
	}
	lookup := r.Handle(ctx, privateMsg(agentAlice, "1001"))
	if !strings.Contains(lookup[0].Text, string(vocab.StatusNoAnswer)) {
		t.Fatalf("store mutation rolled back: %+v", lookup)
	}
}

func TestHandleAlreadyCompletedReply(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx := context.Background()

	r.Handle(ctx, groupMsg(agentAlice, "1001 out"))
	r.Handle(ctx, groupMsg(agentAlice, "1001 done"))

	replies := r.Handle(ctx, groupMsg(agentAlice, "1001 otw"))
	if len(replies) != 1 {
		t.Fatalf("replies = %+v", replies)
	}
	if !strings.Contains(replies[0].Text, "already completed by Alice") {
		t.Errorf("reply = %q", replies[0].Text)
	}
}

func TestHandleBulkDone(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx := context.Background()

	r.Handle(ctx, groupMsg(agentAlice, "1 otw"))
	r.Handle(ctx, groupMsg(agentAlice, "2 no"))

	replies := r.Handle(ctx, groupMsg(agentAlice, "done"))
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "Closed 1 order(s)") {
		t.Fatalf("replies = %+v", replies)
	}
	// Escalated order stays open until an explicit "<id> done".
	lookup := r.Handle(ctx, privateMsg(agentAlice, "2"))
	if !strings.Contains(lookup[0].Text, string(vocab.StatusNoAnswer)) {
		t.Fatalf("order 2 = %+v", lookup)
	}
}

func TestAdminCommandsGated(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx := context.Background()

	for _, cmd := range []string{"/history", "/stats", "/reset", "/undo 1001"} {
		replies := r.Handle(ctx, privateMsg(agentAlice, cmd))
		if len(replies) != 1 || replies[0].Text != adminOnly {
			t.Errorf("%s as non-admin: %+v", cmd, replies)
		}
	}
}

func TestAdminFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx := context.Background()

	r.Handle(ctx, groupMsg(agentAlice, "1001 out"))
	r.Handle(ctx, groupMsg(agentAlice, "1001 done"))

	replies := r.Handle(ctx, privateMsg(adminUser, "/undo 1001"))
	if len(replies) != 1 || !strings.Contains(replies[0].Text, string(vocab.StatusOut)) {
		t.Fatalf("undo = %+v", replies)
	}

	replies = r.Handle(ctx, privateMsg(adminUser, "/history"))
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "1001") {
		t.Fatalf("history = %+v", replies)
	}

	replies = r.Handle(ctx, privateMsg(adminUser, "/stats"))
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "order(s) updated") {
		t.Fatalf("stats = %+v", replies)
	}

	replies = r.Handle(ctx, privateMsg(adminUser, "/reset"))
	if len(replies) != 1 || replies[0].Text != "Order history has been reset." {
		t.Fatalf("reset = %+v", replies)
	}
	lookup := r.Handle(ctx, privateMsg(agentAlice, "1001"))
	if lookup[0].Text != "No record found for this order." {
		t.Fatalf("lookup after reset = %+v", lookup)
	}
}

func TestMyOrders(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx := context.Background()

	replies := r.Handle(ctx, privateMsg(agentAlice, "/myorders"))
	if len(replies) != 1 || replies[0].Text != "You have no order updates yet." {
		t.Fatalf("empty myorders = %+v", replies)
	}

	r.Handle(ctx, groupMsg(agentAlice, "1001,1002 out"))
	replies = r.Handle(ctx, privateMsg(agentAlice, "/myorders"))
	if len(replies) != 1 {
		t.Fatalf("myorders = %+v", replies)
	}
	if !strings.Contains(replies[0].Text, "1001") || !strings.Contains(replies[0].Text, "1002") {
		t.Errorf("myorders = %q", replies[0].Text)
	}
}

func TestCommandWithBotSuffix(t *testing.T) {
	r, _ := newTestRouter(t)
	replies := r.Handle(context.Background(), groupMsg(adminUser, "/stats@StatusBot"))
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "order(s) updated") {
		t.Fatalf("replies = %+v", replies)
	}
}
