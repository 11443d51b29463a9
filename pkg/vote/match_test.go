package vote

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/logging"
)

const (
	testGuild     = "guild-1"
	testChannel   = "chan-1"
	testBot       = "bot-1"
	testRequester = "requester-1"
	roleResponder = "role-responder"
	roleOverseer  = "role-overseer"
)

// fakeStream feeds pre-scripted reactions through the production filters.
type fakeStream struct {
	reactions chan *discordgo.MessageReaction
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		reactions: make(chan *discordgo.MessageReaction, 16),
	}
}

func (f *fakeStream) NextMessage(ctx context.Context, filter dialog.MessageFilter) (*discordgo.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeStream) NextReaction(ctx context.Context, filter dialog.ReactionFilter) (*discordgo.MessageReaction, error) {
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

// fakeSession records platform calls and serves scripted guild members.
type fakeSession struct {
	nextID       int
	sent         []string
	deleted      []string
	reactionsAdd []string
	reactionsRem []string
	members      map[string]*discordgo.Member
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		members: make(map[string]*discordgo.Member),
	}
}

func (f *fakeSession) member(userID string, roles ...string) *discordgo.Member {
	m := &discordgo.Member{
		User:  &discordgo.User{ID: userID},
		Roles: roles,
	}
	f.members[userID] = m
	return m
}

func (f *fakeSession) ChannelMessageSend(channelID, content string) (*discordgo.Message, error) {
	f.nextID++
	f.sent = append(f.sent, content)
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", f.nextID), ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSession) ChannelMessagesBulkDelete(channelID string, messages []string) error {
	return nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string) error {
	f.reactionsAdd = append(f.reactionsAdd, emojiID)
	return nil
}

func (f *fakeSession) MessageReactionRemove(channelID, messageID, emojiID, userID string) error {
	f.reactionsRem = append(f.reactionsRem, userID)
	return nil
}

func (f *fakeSession) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	m, ok := f.members[userID]
	if !ok {
		return nil, fmt.Errorf("unknown member %s", userID)
	}
	return m, nil
}

func newTestMatcher(t *testing.T) (*Matcher, *fakeSession, *fakeStream) {
	t.Helper()
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	s := newFakeSession()
	st := newFakeStream()
	return NewMatcher(l, s, st, testBot), s, st
}

func reaction(userID, emoji string) *discordgo.MessageReaction {
	return &discordgo.MessageReaction{
		ChannelID: testChannel,
		MessageID: "msg-1",
		UserID:    userID,
		Emoji:     discordgo.Emoji{Name: emoji},
	}
}

func baseRequest() Request {
	return Request{
		GuildID:       testGuild,
		ChannelID:     testChannel,
		Prompt:        "A new ticket needs a responder.",
		EligibleRoles: []string{roleResponder},
		ExcludedUsers: []string{testRequester},
		DeclineUsers:  []string{testRequester},
		DeclineRoles:  []string{roleOverseer},
		Timeout:       time.Second,
	}
}

func TestRequestMatchAccept(t *testing.T) {
	matcher, s, st := newTestMatcher(t)
	s.member("responder-1", roleResponder)
	st.reactions <- reaction("responder-1", dialog.EmojiYes)

	res := matcher.RequestMatch(context.Background(), baseRequest())

	require.Equal(t, dialog.OutcomeCompleted, res.Outcome)
	require.Equal(t, "responder-1", res.Value.User.ID)
	// Both affordances seeded, prompt removed once resolved.
	require.Equal(t, []string{dialog.EmojiYes, dialog.EmojiNo}, s.reactionsAdd)
	require.Equal(t, []string{"msg-1"}, s.deleted)
}

func TestRequestMatchIneligibleAcceptRemoved(t *testing.T) {
	matcher, s, st := newTestMatcher(t)
	s.member("bystander-1")
	s.member("responder-1", roleResponder)
	st.reactions <- reaction("bystander-1", dialog.EmojiYes)
	st.reactions <- reaction("responder-1", dialog.EmojiYes)

	res := matcher.RequestMatch(context.Background(), baseRequest())

	require.Equal(t, dialog.OutcomeCompleted, res.Outcome)
	require.Equal(t, "responder-1", res.Value.User.ID)
	// The disqualified gesture is reverted, not just ignored.
	require.Equal(t, []string{"bystander-1"}, s.reactionsRem)
}

func TestRequestMatchExcludedUserNeverResolves(t *testing.T) {
	matcher, s, st := newTestMatcher(t)
	// Holding the eligible role does not override the exclusion.
	s.member(testRequester, roleResponder)
	st.reactions <- reaction(testRequester, dialog.EmojiYes)

	req := baseRequest()
	req.Timeout = 50 * time.Millisecond
	res := matcher.RequestMatch(context.Background(), req)

	require.Equal(t, dialog.OutcomeTimedOut, res.Outcome)
	require.Equal(t, []string{testRequester}, s.reactionsRem)
}

func TestRequestMatchDecline(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		roles  []string
	}{
		{name: "ByUser", userID: testRequester},
		{name: "ByRole", userID: "overseer-1", roles: []string{roleOverseer}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher, s, st := newTestMatcher(t)
			s.member(tt.userID, tt.roles...)
			st.reactions <- reaction(tt.userID, dialog.EmojiNo)

			res := matcher.RequestMatch(context.Background(), baseRequest())

			require.Equal(t, dialog.OutcomeCancelled, res.Outcome)
			require.Equal(t, []string{"msg-1"}, s.deleted)
		})
	}
}

func TestRequestMatchUnauthorisedDeclineRemoved(t *testing.T) {
	matcher, s, st := newTestMatcher(t)
	s.member("responder-1", roleResponder)
	st.reactions <- reaction("responder-1", dialog.EmojiNo)

	req := baseRequest()
	req.Timeout = 50 * time.Millisecond
	res := matcher.RequestMatch(context.Background(), req)

	require.Equal(t, dialog.OutcomeTimedOut, res.Outcome)
	require.Equal(t, []string{"responder-1"}, s.reactionsRem)
}

func TestRequestMatchIgnoresBotSeed(t *testing.T) {
	matcher, s, st := newTestMatcher(t)
	s.member("responder-1", roleResponder)
	st.reactions <- reaction(testBot, dialog.EmojiYes)
	st.reactions <- reaction("responder-1", dialog.EmojiYes)

	res := matcher.RequestMatch(context.Background(), baseRequest())

	require.Equal(t, dialog.OutcomeCompleted, res.Outcome)
	require.Equal(t, "responder-1", res.Value.User.ID)
	require.Empty(t, s.reactionsRem)
}

func TestRequestMatchOtherEmojiRemoved(t *testing.T) {
	matcher, s, st := newTestMatcher(t)
	s.member("responder-1", roleResponder)
	st.reactions <- reaction("responder-1", "🎉")
	st.reactions <- reaction("responder-1", dialog.EmojiYes)

	res := matcher.RequestMatch(context.Background(), baseRequest())

	require.Equal(t, dialog.OutcomeCompleted, res.Outcome)
	require.Equal(t, []string{"responder-1"}, s.reactionsRem)
}

func TestRequestMatchTimedOut(t *testing.T) {
	matcher, s, _ := newTestMatcher(t)

	req := baseRequest()
	req.Timeout = 50 * time.Millisecond
	res := matcher.RequestMatch(context.Background(), req)

	require.Equal(t, dialog.OutcomeTimedOut, res.Outcome)
	require.Equal(t, []string{"msg-1"}, s.deleted)
}
