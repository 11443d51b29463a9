// Package vote implements the responder matching round: a posted request that
// exactly one eligible actor claims via an acknowledgement reaction.
package vote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/logging"
)

// Session is the platform surface the matcher needs.
type Session interface {
	dialog.Messenger

	// GuildMember gets a guild member, including their roles.
	GuildMember(guildID, userID string) (*discordgo.Member, error)
}

// Request describes one matching round.
type Request struct {
	// GuildID is the guild the round runs in.
	GuildID string

	// ChannelID is the channel the prompt is posted to.
	ChannelID string

	// Prompt is the request text.
	Prompt string

	// EligibleRoles are the roles allowed to accept. At least one must be held.
	EligibleRoles []string

	// ExcludedUsers are actors that may never accept, typically the requester
	// and/or the current responder.
	ExcludedUsers []string

	// DeclineUsers are actors allowed to decline the request outright.
	DeclineUsers []string

	// DeclineRoles are roles allowed to decline the request outright.
	DeclineRoles []string

	// Timeout bounds the whole round.
	Timeout time.Duration
}

// Matcher runs matching rounds.
type Matcher struct {
	// l is the logger.
	l *slog.Logger

	// s is the platform session.
	s Session

	// stream is the event stream to wait on.
	stream dialog.Stream

	// botID is the bot's own user ID. Its seeding reactions never qualify.
	botID string
}

// NewMatcher creates a new matcher.
func NewMatcher(l *slog.Logger, s Session, stream dialog.Stream, botID string) *Matcher {
	return &Matcher{
		l:      l,
		s:      s,
		stream: stream,
		botID:  botID,
	}
}

// RequestMatch posts the request and waits for the first qualifying accept.
// Gestures from disqualified actors are removed from the message rather than
// silently ignored, keeping the affordance clean for other observers. The
// prompt is deleted on every exit path, so later gestures on a resolved round
// are never observed.
func (m *Matcher) RequestMatch(ctx context.Context, req Request) dialog.Result[*discordgo.Member] {
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	prompt, err := m.s.ChannelMessageSend(req.ChannelID, req.Prompt)
	if err != nil {
		m.l.Error("Error posting match request", slog.String(logging.KeyError, err.Error()))
		return dialog.TimedOut[*discordgo.Member]()
	}
	defer func() {
		if err := m.s.ChannelMessageDelete(req.ChannelID, prompt.ID); err != nil {
			m.l.Warn("Error deleting match request", slog.String(logging.KeyError, err.Error()))
		}
	}()

	for _, emoji := range []string{dialog.EmojiYes, dialog.EmojiNo} {
		if err := m.s.MessageReactionAdd(req.ChannelID, prompt.ID, emoji); err != nil {
			m.l.Warn("Error seeding match reaction", slog.String(logging.KeyError, err.Error()))
		}
	}

	filter := dialog.ReactionFilter{
		ChannelID: req.ChannelID,
		MessageID: prompt.ID,
	}
	for {
		react, err := m.stream.NextReaction(ctx, filter)
		if err != nil {
			return waitResult(err)
		}

		if react.UserID == m.botID {
			continue
		}

		emoji := react.Emoji.APIName()
		if emoji != dialog.EmojiYes && emoji != dialog.EmojiNo {
			m.revert(req.ChannelID, prompt.ID, emoji, react.UserID)
			continue
		}

		member, err := m.s.GuildMember(req.GuildID, react.UserID)
		if err != nil {
			m.l.Warn("Error resolving reacting member", slog.String(logging.KeyError, err.Error()),
				slog.String(logging.KeyUser, react.UserID))
			m.revert(req.ChannelID, prompt.ID, emoji, react.UserID)
			continue
		}

		switch emoji {
		case dialog.EmojiYes:
			if contains(req.ExcludedUsers, react.UserID) || !hasAnyRole(member, req.EligibleRoles) {
				m.revert(req.ChannelID, prompt.ID, emoji, react.UserID)
				continue
			}
			return dialog.Completed(member)

		case dialog.EmojiNo:
			if contains(req.DeclineUsers, react.UserID) || hasAnyRole(member, req.DeclineRoles) {
				return dialog.Cancelled[*discordgo.Member]()
			}
			m.revert(req.ChannelID, prompt.ID, emoji, react.UserID)
		}
	}
}

// revert removes a disqualified gesture from the prompt.
func (m *Matcher) revert(channelID, messageID, emoji, userID string) {
	if err := m.s.MessageReactionRemove(channelID, messageID, emoji, userID); err != nil {
		m.l.Warn("Error removing disqualified reaction", slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyUser, userID))
	}
}

func waitResult(err error) dialog.Result[*discordgo.Member] {
	if errors.Is(err, context.DeadlineExceeded) {
		return dialog.TimedOut[*discordgo.Member]()
	}
	return dialog.Cancelled[*discordgo.Member]()
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func hasAnyRole(member *discordgo.Member, roles []string) bool {
	for _, held := range member.Roles {
		if contains(roles, held) {
			return true
		}
	}
	return false
}
