package ticketing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/messages"
)

func TestUnclaim(t *testing.T) {
	f := newFixture(t)
	ticket := f.openTicket()
	f.session.member("responder-2", roleResponder)

	// The former responder tries to re-claim their own swap request and is
	// reverted; a fresh responder then accepts.
	f.stream.reactions <- reaction(testTicketChan, "msg-1", testResponder, dialog.EmojiYes)
	f.stream.reactions <- reaction(testTicketChan, "msg-1", "responder-2", dialog.EmojiYes)

	err := f.svc.Unclaim(context.Background(), f.gc, f.cfg, ticket, "name-"+testResponder)
	require.NoError(t, err, "Failed to unclaim ticket")

	require.Equal(t, []string{testResponder}, f.session.reactionsRem)

	saved := f.tickets.tickets[ticket.ID]
	require.Equal(t, entities.StateClaimed, saved.State)
	require.Equal(t, "responder-2", saved.ResponderID)

	// Pool re-opened for the round, then shut out again.
	edits := f.session.edits[testTicketChan]
	require.Len(t, edits, 2)
	var poolAllowDuring, poolDenyAfter int64
	for _, o := range edits[0].PermissionOverwrites {
		if o.ID == roleResponder {
			poolAllowDuring = o.Allow
		}
	}
	for _, o := range edits[1].PermissionOverwrites {
		if o.ID == roleResponder {
			poolDenyAfter = o.Deny
		}
	}
	require.NotZero(t, poolAllowDuring)
	require.NotZero(t, poolDenyAfter)

	logSends := f.session.sent[testLogChan]
	require.Len(t, logSends, 1)
	require.Contains(t, logSends[0], "Swap")
	require.Contains(t, logSends[0], "__Old Responder:__ name-"+testResponder)
	require.Contains(t, logSends[0], "__Responder:__ name-responder-2")
}

func TestUnclaimWithoutResponder(t *testing.T) {
	f := newFixture(t)
	ticket := f.openTicket()
	ticket.ResponderID = ""

	err := f.svc.Unclaim(context.Background(), f.gc, f.cfg, ticket, "someone")
	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
}

func TestUnclaimRematchesPendingTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.openTicket()
	ticket.ResponderID = ""
	ticket.State = entities.StatePending

	// The earlier matching round timed out; unclaiming the pending ticket
	// re-runs it and a responder accepts.
	f.stream.reactions <- reaction(testTicketChan, "msg-1", testResponder, dialog.EmojiYes)

	err := f.svc.Unclaim(context.Background(), f.gc, f.cfg, ticket, "someone")
	require.NoError(t, err, "Failed to unclaim ticket")

	saved := f.tickets.tickets[ticket.ID]
	require.Equal(t, entities.StateClaimed, saved.State)
	require.Equal(t, testResponder, saved.ResponderID)

	// No former responder to report.
	logSends := f.session.sent[testLogChan]
	require.Len(t, logSends, 1)
	require.Contains(t, logSends[0], "Swap")
	require.NotContains(t, logSends[0], "__Old Responder:__")
}

func TestUnclaimMatchTimeout(t *testing.T) {
	f := newFixture(t)
	f.shortTimeouts()
	ticket := f.openTicket()

	err := f.svc.Unclaim(context.Background(), f.gc, f.cfg, ticket, "someone")
	require.NoError(t, err, "Failed to unclaim ticket")

	// Ticket stays unclaimed and open for a later round.
	saved := f.tickets.tickets[ticket.ID]
	require.Equal(t, entities.StateUnclaimed, saved.State)
	require.Empty(t, saved.ResponderID)
	sends := f.session.sent[testTicketChan]
	require.Contains(t, sends[len(sends)-1], messages.MatchTimedOut)
}

func TestReview(t *testing.T) {
	f := newFixture(t)
	ticket := f.openTicket()
	f.session.member("reviewer-1", roleResponder)

	// Requester and current responder are both barred from claiming the
	// review; an uninvolved responder takes it.
	f.stream.reactions <- reaction(testTicketChan, "msg-1", testResponder, dialog.EmojiYes)
	f.stream.reactions <- reaction(testTicketChan, "msg-1", "reviewer-1", dialog.EmojiYes)

	err := f.svc.Review(context.Background(), f.gc, f.cfg, ticket, "name-"+testResponder)
	require.NoError(t, err, "Failed to review ticket")

	require.Equal(t, []string{testResponder}, f.session.reactionsRem)

	// Reviewer is transient: state changes, the responder of record does not.
	saved := f.tickets.tickets[ticket.ID]
	require.Equal(t, entities.StateReviewed, saved.State)
	require.Equal(t, testResponder, saved.ResponderID)

	edits := f.session.edits[testTicketChan]
	require.Len(t, edits, 2)

	logSends := f.session.sent[testLogChan]
	require.Len(t, logSends, 1)
	require.Contains(t, logSends[0], "__New Reviewer:__ name-reviewer-1")

	sends := f.session.sent[testTicketChan]
	require.Contains(t, sends[len(sends)-1], "<@reviewer-1>")
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	ticket := f.openTicket()

	err := f.svc.Rename(context.Background(), f.cfg, ticket, "Billing Question!")
	require.NoError(t, err, "Failed to rename ticket")

	edits := f.session.edits[testTicketChan]
	require.Len(t, edits, 1)
	require.Equal(t, "help-1-billing-question", edits[0].Name)
}

func TestRenameUnusableName(t *testing.T) {
	f := newFixture(t)
	ticket := f.openTicket()

	err := f.svc.Rename(context.Background(), f.cfg, ticket, "?!")
	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	require.Empty(t, f.session.edits[testTicketChan])
}
