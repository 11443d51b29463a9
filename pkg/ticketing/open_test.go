package ticketing

import (
	"context"
	"errors"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/messages"
)

func TestOpenHappyPath(t *testing.T) {
	f := newFixture(t)
	requester := f.session.members[testRequester]

	// Message send order: log entry, directions, question one, question two,
	// answer summary, then the match prompt as the sixth message.
	f.stream.messages <- userMessage(testTicketChan, testRequester, "answer one")
	f.stream.messages <- userMessage(testTicketChan, testRequester, "answer two")
	f.stream.reactions <- reaction(testTicketChan, "msg-6", testResponder, dialog.EmojiYes)

	err := f.svc.Open(context.Background(), f.gc, f.cfg, requester)
	require.NoError(t, err, "Failed to open ticket")

	// Channel created under the category with the pool able to see it.
	require.Len(t, f.session.created, 1)
	created := f.session.created[0]
	require.Equal(t, "help-1-name-", created.Name)
	require.Equal(t, "chan-category", created.ParentID)
	overwrites := map[string]*discordgo.PermissionOverwrite{}
	for _, o := range created.PermissionOverwrites {
		overwrites[o.ID] = o
	}
	require.NotZero(t, overwrites[testRequester].Allow)
	require.NotZero(t, overwrites[roleResponder].Allow)
	require.NotZero(t, overwrites[testGuild].Deny)

	// Ticket persisted as claimed with both answers in order.
	require.Len(t, f.tickets.tickets, 1)
	var ticket *entities.Ticket
	for _, tk := range f.tickets.tickets {
		ticket = tk
	}
	require.Equal(t, entities.StateClaimed, ticket.State)
	require.Equal(t, testResponder, ticket.ResponderID)
	require.Equal(t, []entities.TicketAnswer{
		{Num: 1, Text: "answer one"},
		{Num: 2, Text: "answer two"},
	}, ticket.Answers)
	require.Equal(t, "msg-5", ticket.JumpMessageID)

	// Pool shut out once claimed.
	edits := f.session.edits[testTicketChan]
	require.Len(t, edits, 1)
	var roleDeny int64
	for _, o := range edits[0].PermissionOverwrites {
		if o.ID == roleResponder {
			roleDeny = o.Deny
		}
	}
	require.NotZero(t, roleDeny)

	// Directions and summary pinned, responder welcomed, actions logged.
	require.Equal(t, []string{"msg-2", "msg-5"}, f.session.pins)
	require.Contains(t, f.session.sent[testTicketChan][len(f.session.sent[testTicketChan])-1], "<@"+testResponder+">")
	logSends := f.session.sent[testLogChan]
	require.Len(t, logSends, 2)
	require.Contains(t, logSends[0], "Ticket Created")
	require.Contains(t, logSends[1], "Ticket Taken")
}

func TestOpenCancelled(t *testing.T) {
	f := newFixture(t)
	requester := f.session.members[testRequester]
	f.stream.messages <- userMessage(testTicketChan, testRequester, dialog.CancelWord)

	err := f.svc.Open(context.Background(), f.gc, f.cfg, requester)
	require.NoError(t, err, "Failed to abandon ticket")

	// No row, channel torn down, requester notified in the intake channel.
	require.Empty(t, f.tickets.tickets)
	require.Equal(t, []string{testTicketChan}, f.session.deletedChannels)
	intake := f.session.sent[testIntakeChan]
	require.Len(t, intake, 1)
	require.Contains(t, intake[0], "<@"+testRequester+">")
	require.Contains(t, intake[0], messages.DialogCancelled)
}

func TestOpenIntakeTimeout(t *testing.T) {
	f := newFixture(t)
	f.shortTimeouts()
	requester := f.session.members[testRequester]

	err := f.svc.Open(context.Background(), f.gc, f.cfg, requester)
	require.NoError(t, err, "Failed to abandon ticket")

	require.Empty(t, f.tickets.tickets)
	require.Equal(t, []string{testTicketChan}, f.session.deletedChannels)
	require.Contains(t, f.session.sent[testIntakeChan][0], messages.DialogTimedOut)
}

func TestOpenMatchTimeoutLeavesPending(t *testing.T) {
	f := newFixture(t)
	f.shortTimeouts()
	f.cfg.Questions = nil
	requester := f.session.members[testRequester]

	err := f.svc.Open(context.Background(), f.gc, f.cfg, requester)
	require.NoError(t, err, "Failed to open ticket")

	// Collected intake survives the matching timeout as a pending row.
	require.Len(t, f.tickets.tickets, 1)
	for _, tk := range f.tickets.tickets {
		require.Equal(t, entities.StatePending, tk.State)
		require.Empty(t, tk.ResponderID)
	}
	require.Empty(t, f.session.deletedChannels)
	sends := f.session.sent[testTicketChan]
	require.Contains(t, sends[len(sends)-1], messages.MatchTimedOut)
}

func TestOpenSaveFailureRemovesChannel(t *testing.T) {
	f := newFixture(t)
	f.cfg.Questions = nil
	f.tickets.saveErr = errors.New("mongo down")
	requester := f.session.members[testRequester]

	err := f.svc.Open(context.Background(), f.gc, f.cfg, requester)
	require.Error(t, err, "Expected open to fail")

	// No row could be written, so the channel must not survive either.
	require.Empty(t, f.tickets.tickets)
	require.Equal(t, []string{testTicketChan}, f.session.deletedChannels)
}

func TestOpenDirectionsFailureRemovesChannel(t *testing.T) {
	f := newFixture(t)
	f.session.sendErr[testTicketChan] = errors.New("channel gone")
	requester := f.session.members[testRequester]

	err := f.svc.Open(context.Background(), f.gc, f.cfg, requester)
	require.Error(t, err, "Expected open to fail")

	require.Empty(t, f.tickets.tickets)
	require.Equal(t, []string{testTicketChan}, f.session.deletedChannels)
}

func TestOpenNumbersTicketsSequentially(t *testing.T) {
	f := newFixture(t)
	f.shortTimeouts()
	f.cfg.Questions = nil
	f.tickets.tickets["existing"] = &entities.Ticket{ID: "existing", GuildID: testGuild, Number: 41}
	requester := f.session.members[testRequester]

	err := f.svc.Open(context.Background(), f.gc, f.cfg, requester)
	require.NoError(t, err, "Failed to open ticket")
	require.Equal(t, "help-42-name-", f.session.created[0].Name)
}

func TestHandlePinReaction(t *testing.T) {
	pin := func(userID string, emoji discordgo.Emoji) *discordgo.MessageReactionAdd {
		return &discordgo.MessageReactionAdd{
			MessageReaction: &discordgo.MessageReaction{
				GuildID:   testGuild,
				ChannelID: testIntakeChan,
				MessageID: "msg-pin",
				UserID:    userID,
				Emoji:     emoji,
			},
		}
	}

	t.Run("TriggerEmojiOpens", func(t *testing.T) {
		f := newFixture(t)
		f.shortTimeouts()
		f.cfg.Questions = nil

		err := f.svc.HandlePinReaction(context.Background(), pin(testRequester, discordgo.Emoji{ID: "emoji-1", Name: "ticket"}))
		require.NoError(t, err, "Failed to handle pin reaction")

		// Gesture reverted, ticket opened.
		require.Equal(t, []string{testRequester}, f.session.reactionsRem)
		require.Len(t, f.session.created, 1)
		require.Len(t, f.tickets.tickets, 1)
	})

	t.Run("ForeignEmojiCleared", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.HandlePinReaction(context.Background(), pin(testRequester, discordgo.Emoji{ID: "emoji-unknown", Name: "party"}))
		require.NoError(t, err, "Failed to handle pin reaction")

		require.Len(t, f.session.clearedEmojis, 1)
		require.Empty(t, f.session.created)
	})

	t.Run("OtherMessageIgnored", func(t *testing.T) {
		f := newFixture(t)
		r := pin(testRequester, discordgo.Emoji{ID: "emoji-1"})
		r.MessageID = "msg-other"

		err := f.svc.HandlePinReaction(context.Background(), r)
		require.NoError(t, err, "Failed to handle pin reaction")
		require.Empty(t, f.session.reactionsRem)
		require.Empty(t, f.session.created)
	})

	t.Run("BotIgnored", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.HandlePinReaction(context.Background(), pin(testBot, discordgo.Emoji{ID: "emoji-1"}))
		require.NoError(t, err, "Failed to handle pin reaction")
		require.Empty(t, f.session.created)
	})
}
