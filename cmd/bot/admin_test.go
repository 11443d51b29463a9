package main

import (
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/logging"
)

// fakeMessenger records message deletes as channelID/messageID pairs.
type fakeMessenger struct {
	deleted []string
}

var _ dialog.Messenger = (*fakeMessenger)(nil)

func (f *fakeMessenger) ChannelMessageSend(channelID, content string) (*discordgo.Message, error) {
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeMessenger) ChannelMessageDelete(channelID, messageID string) error {
	f.deleted = append(f.deleted, channelID+"/"+messageID)
	return nil
}

func (f *fakeMessenger) ChannelMessagesBulkDelete(channelID string, messages []string) error {
	return nil
}

func (f *fakeMessenger) MessageReactionAdd(channelID, messageID, emojiID string) error {
	return nil
}

func (f *fakeMessenger) MessageReactionRemove(channelID, messageID, emojiID, userID string) error {
	return nil
}

func TestDropStalePin(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	t.Run("IntakeChannelMoved", func(t *testing.T) {
		m := new(fakeMessenger)
		gc := &entities.GuildConfig{
			ID:              "guild-1",
			TicketChannelID: "chan-new",
			PinnedMessageID: "msg-pin",
		}

		dropStalePin(l, m, gc, "chan-old", "msg-pin")

		// The pin is deleted from the channel it actually lives in.
		require.Equal(t, []string{"chan-old/msg-pin"}, m.deleted)
		require.Empty(t, gc.PinnedMessageID)
	})

	t.Run("IntakeChannelUnchanged", func(t *testing.T) {
		m := new(fakeMessenger)
		gc := &entities.GuildConfig{
			ID:              "guild-1",
			TicketChannelID: "chan-same",
			PinnedMessageID: "msg-pin",
		}

		dropStalePin(l, m, gc, "chan-same", "msg-pin")

		require.Empty(t, m.deleted)
		require.Equal(t, "msg-pin", gc.PinnedMessageID)
	})

	t.Run("NoPreviousPin", func(t *testing.T) {
		m := new(fakeMessenger)
		gc := &entities.GuildConfig{
			ID:              "guild-1",
			TicketChannelID: "chan-new",
		}

		dropStalePin(l, m, gc, "chan-old", "")

		require.Empty(t, m.deleted)
	})
}
