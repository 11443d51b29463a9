package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/gearsandcogs/tick/pkg/logging"
)

const (
	// CancelWord cancels any dialog, exact match.
	CancelWord = "cancel"

	// StopWord also cancels any dialog, exact match.
	StopWord = "stop"

	// EmojiYes is the accept reaction. (White heavy check mark)
	EmojiYes = "✅"

	// EmojiNo is the decline reaction. (Cross mark)
	EmojiNo = "❌"
)

// cancelHint is appended to every prompt so users always know the way out.
const cancelHint = "\n\nTo cancel at any time, just reply with: **" + CancelWord + "**"

// Validator checks an answer before it is accepted. Returning an error causes
// a re-prompt with the error text; it does not end the dialog.
type Validator func(content string) error

// Messenger is the subset of the platform session the dialog engine needs.
type Messenger interface {
	// ChannelMessageSend sends a message to a channel.
	ChannelMessageSend(channelID, content string) (*discordgo.Message, error)

	// ChannelMessageDelete deletes a message from a channel.
	ChannelMessageDelete(channelID, messageID string) error

	// ChannelMessagesBulkDelete deletes multiple messages from a channel.
	ChannelMessagesBulkDelete(channelID string, messages []string) error

	// MessageReactionAdd adds a reaction to a message.
	MessageReactionAdd(channelID, messageID, emojiID string) error

	// MessageReactionRemove removes a user's reaction from a message.
	MessageReactionRemove(channelID, messageID, emojiID, userID string) error
}

// Asker runs interactive dialogs against a channel.
type Asker struct {
	// l is the logger.
	l *slog.Logger

	// m is the platform session.
	m Messenger

	// stream is the event stream to wait on.
	stream Stream

	// botID is the bot's own user ID, excluded from qualifying reactions.
	botID string
}

// NewAsker creates a new dialog engine.
func NewAsker(l *slog.Logger, m Messenger, stream Stream, botID string) *Asker {
	return &Asker{
		l:      l,
		m:      m,
		stream: stream,
		botID:  botID,
	}
}

// Ask sends a prompt and waits for the next qualifying reply. Invalid answers
// trigger a re-prompt on the same absolute deadline; the timeout is never
// reset by invalid input, bounding the total wait. All prompt and answer
// messages are deleted on every exit path so no scratch record is left.
func (a *Asker) Ask(ctx context.Context, filter MessageFilter, prompt string, validate Validator, timeout time.Duration) Result[string] {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	scratch := make([]string, 0, 4)
	defer func() {
		a.cleanup(filter.ChannelID, scratch)
	}()

	text := prompt + cancelHint
	for {
		sent, err := a.m.ChannelMessageSend(filter.ChannelID, text)
		if err != nil {
			a.l.Error("Error sending dialog prompt", slog.String(logging.KeyError, err.Error()))
			return TimedOut[string]()
		}
		scratch = append(scratch, sent.ID)

		msg, err := a.stream.NextMessage(ctx, filter)
		if err != nil {
			return waitResult[string](err)
		}
		scratch = append(scratch, msg.ID)

		if msg.Content == CancelWord || msg.Content == StopWord {
			return Cancelled[string]()
		}

		if validate != nil {
			if vErr := validate(msg.Content); vErr != nil {
				text = fmt.Sprintf("%s\n\nPlease answer again.", vErr.Error()) + cancelHint
				continue
			}
		}

		return Completed(msg.Content)
	}
}

// Confirm presents a yes/no choice as two reactions and waits for the given
// author to pick one. If authorID is empty, anyone but the bot may answer.
// Disqualifying reactions are filtered by predicate alone, not removed.
// The prompt is deleted on every exit path.
func (a *Asker) Confirm(ctx context.Context, channelID, text, authorID string, timeout time.Duration) Result[bool] {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sent, err := a.m.ChannelMessageSend(channelID, text)
	if err != nil {
		a.l.Error("Error sending confirmation prompt", slog.String(logging.KeyError, err.Error()))
		return TimedOut[bool]()
	}
	defer func() {
		if err := a.m.ChannelMessageDelete(channelID, sent.ID); err != nil {
			a.l.Warn("Error deleting confirmation prompt", slog.String(logging.KeyError, err.Error()))
		}
	}()

	for _, emoji := range []string{EmojiYes, EmojiNo} {
		if err := a.m.MessageReactionAdd(channelID, sent.ID, emoji); err != nil {
			a.l.Warn("Error seeding confirmation reaction", slog.String(logging.KeyError, err.Error()))
		}
	}

	filter := ReactionFilter{
		ChannelID: channelID,
		MessageID: sent.ID,
		UserID:    authorID,
	}
	for {
		react, err := a.stream.NextReaction(ctx, filter)
		if err != nil {
			return waitResult[bool](err)
		}

		if react.UserID == a.botID {
			continue
		}

		switch react.Emoji.APIName() {
		case EmojiYes:
			return Completed(true)
		case EmojiNo:
			return Completed(false)
		default:
			// Not a qualifying emoji, keep waiting.
		}
	}
}

// cleanup removes the scratch messages of a dialog.
func (a *Asker) cleanup(channelID string, messageIDs []string) {
	if len(messageIDs) == 0 {
		return
	}

	// Bulk delete requires at least two messages.
	var err error
	if len(messageIDs) == 1 {
		err = a.m.ChannelMessageDelete(channelID, messageIDs[0])
	} else {
		err = a.m.ChannelMessagesBulkDelete(channelID, messageIDs)
	}
	if err != nil {
		a.l.Warn("Error deleting dialog scratch messages", slog.String(logging.KeyError, err.Error()))
	}
}

// waitResult maps a wait error onto a dialog result. Deadline expiry is a
// timeout; everything else (including shutdown) is treated as cancellation.
func waitResult[T any](err error) Result[T] {
	if errors.Is(err, context.DeadlineExceeded) {
		return TimedOut[T]()
	}
	return Cancelled[T]()
}
