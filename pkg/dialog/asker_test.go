package dialog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/gearsandcogs/tick/pkg/logging"
)

const (
	testChannel = "chan-1"
	testAuthor  = "user-1"
	testBot     = "bot-1"
)

// fakeStream feeds pre-scripted events through the same filters production
// waits use.
type fakeStream struct {
	messages  chan *discordgo.Message
	reactions chan *discordgo.MessageReaction
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		messages:  make(chan *discordgo.Message, 16),
		reactions: make(chan *discordgo.MessageReaction, 16),
	}
}

func (f *fakeStream) NextMessage(ctx context.Context, filter MessageFilter) (*discordgo.Message, error) {
	for {
		select {
		case m := <-f.messages:
			if filter.Matches(m) {
				return m, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (f *fakeStream) NextReaction(ctx context.Context, filter ReactionFilter) (*discordgo.MessageReaction, error) {
	for {
		select {
		case r := <-f.reactions:
			if filter.Matches(r) {
				return r, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// fakeMessenger records every platform call.
type fakeMessenger struct {
	nextID       int
	sent         []string
	deleted      []string
	bulkDeleted  []string
	reactionsAdd []string
	reactionsRem []string
}

func (f *fakeMessenger) ChannelMessageSend(channelID, content string) (*discordgo.Message, error) {
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	f.sent = append(f.sent, content)
	return &discordgo.Message{ID: id, ChannelID: channelID, Content: content}, nil
}

func (f *fakeMessenger) ChannelMessageDelete(channelID, messageID string) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) ChannelMessagesBulkDelete(channelID string, messages []string) error {
	f.bulkDeleted = append(f.bulkDeleted, messages...)
	return nil
}

func (f *fakeMessenger) MessageReactionAdd(channelID, messageID, emojiID string) error {
	f.reactionsAdd = append(f.reactionsAdd, emojiID)
	return nil
}

func (f *fakeMessenger) MessageReactionRemove(channelID, messageID, emojiID, userID string) error {
	f.reactionsRem = append(f.reactionsRem, userID)
	return nil
}

func newTestAsker(t *testing.T) (*Asker, *fakeMessenger, *fakeStream) {
	t.Helper()
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	m := new(fakeMessenger)
	st := newFakeStream()
	return NewAsker(l, m, st, testBot), m, st
}

func userMessage(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "reply-" + content,
		ChannelID: testChannel,
		Content:   content,
		Author:    &discordgo.User{ID: testAuthor},
	}
}

func TestAskCompleted(t *testing.T) {
	asker, m, st := newTestAsker(t)
	st.messages <- userMessage("my answer")

	res := asker.Ask(context.Background(), MessageFilter{ChannelID: testChannel, AuthorID: testAuthor},
		"What do you need?", nil, time.Second)

	require.Equal(t, OutcomeCompleted, res.Outcome)
	require.Equal(t, "my answer", res.Value)
	// Prompt and answer are both scratch and must be removed.
	require.Len(t, m.bulkDeleted, 2)
}

func TestAskCancelToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "Cancel", token: CancelWord},
		{name: "Stop", token: StopWord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asker, m, st := newTestAsker(t)
			st.messages <- userMessage(tt.token)

			res := asker.Ask(context.Background(), MessageFilter{ChannelID: testChannel, AuthorID: testAuthor},
				"Question 1 of 2", nil, time.Second)

			require.Equal(t, OutcomeCancelled, res.Outcome)
			require.Len(t, m.bulkDeleted, 2)
		})
	}
}

func TestAskRevalidates(t *testing.T) {
	asker, m, st := newTestAsker(t)
	st.messages <- userMessage("bad")
	st.messages <- userMessage("good")

	validate := func(content string) error {
		if content == "bad" {
			return fmt.Errorf("the response was too long")
		}
		return nil
	}

	res := asker.Ask(context.Background(), MessageFilter{ChannelID: testChannel, AuthorID: testAuthor},
		"Question", validate, time.Second)

	require.Equal(t, OutcomeCompleted, res.Outcome)
	require.Equal(t, "good", res.Value)
	// Original prompt plus one re-prompt.
	require.Len(t, m.sent, 2)
	require.Contains(t, m.sent[1], "too long")
	// Both prompts and both answers removed.
	require.Len(t, m.bulkDeleted, 4)
}

func TestAskIgnoresOtherAuthors(t *testing.T) {
	asker, _, st := newTestAsker(t)
	st.messages <- &discordgo.Message{
		ID: "intruder", ChannelID: testChannel, Content: "not me",
		Author: &discordgo.User{ID: "someone-else"},
	}

	res := asker.Ask(context.Background(), MessageFilter{ChannelID: testChannel, AuthorID: testAuthor},
		"Question", nil, 50*time.Millisecond)

	require.Equal(t, OutcomeTimedOut, res.Outcome)
}

func TestAskTimedOut(t *testing.T) {
	asker, m, st := newTestAsker(t)
	_ = st

	res := asker.Ask(context.Background(), MessageFilter{ChannelID: testChannel, AuthorID: testAuthor},
		"Question", nil, 50*time.Millisecond)

	require.Equal(t, OutcomeTimedOut, res.Outcome)
	// The unanswered prompt is still cleaned up.
	require.Len(t, m.deleted, 1)
}

func reaction(messageID, userID, emoji string) *discordgo.MessageReaction {
	return &discordgo.MessageReaction{
		ChannelID: testChannel,
		MessageID: messageID,
		UserID:    userID,
		Emoji:     discordgo.Emoji{Name: emoji},
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		emoji string
		want  bool
	}{
		{name: "Yes", emoji: EmojiYes, want: true},
		{name: "No", emoji: EmojiNo, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asker, m, st := newTestAsker(t)
			st.reactions <- reaction("msg-1", testAuthor, tt.emoji)

			res := asker.Confirm(context.Background(), testChannel, "Confirm?", testAuthor, time.Second)

			require.Equal(t, OutcomeCompleted, res.Outcome)
			require.Equal(t, tt.want, res.Value)
			// Both affordances seeded, prompt deleted afterwards.
			require.Equal(t, []string{EmojiYes, EmojiNo}, m.reactionsAdd)
			require.Equal(t, []string{"msg-1"}, m.deleted)
		})
	}
}

func TestConfirmIgnoresOtherUsers(t *testing.T) {
	asker, _, st := newTestAsker(t)
	st.reactions <- reaction("msg-1", "someone-else", EmojiYes)

	res := asker.Confirm(context.Background(), testChannel, "Confirm?", testAuthor, 50*time.Millisecond)

	require.Equal(t, OutcomeTimedOut, res.Outcome)
}
