package dialog

import (
	"context"

	"github.com/Jacobbrewer1/discordgo"
)

// Stream delivers the next qualifying platform event to a waiting caller.
// Every wait is bounded by the context; there is no unbounded wait.
type Stream interface {
	// NextMessage blocks until a message matching the filter arrives or the
	// context ends.
	NextMessage(ctx context.Context, filter MessageFilter) (*discordgo.Message, error)

	// NextReaction blocks until a reaction matching the filter arrives or the
	// context ends.
	NextReaction(ctx context.Context, filter ReactionFilter) (*discordgo.MessageReaction, error)
}

// SessionStream implements Stream over a discord session by registering a
// temporary gateway handler for the duration of each wait.
type SessionStream struct {
	// s is the discord session.
	s *discordgo.Session
}

// NewSessionStream creates a stream over a discord session.
func NewSessionStream(s *discordgo.Session) *SessionStream {
	return &SessionStream{
		s: s,
	}
}

func (st *SessionStream) NextMessage(ctx context.Context, filter MessageFilter) (*discordgo.Message, error) {
	got := make(chan *discordgo.Message, 1)

	remove := st.s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if !filter.Matches(m.Message) {
			return
		}
		select {
		case got <- m.Message:
		default:
		}
	})
	defer remove()

	select {
	case m := <-got:
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (st *SessionStream) NextReaction(ctx context.Context, filter ReactionFilter) (*discordgo.MessageReaction, error) {
	got := make(chan *discordgo.MessageReaction, 1)

	remove := st.s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if !filter.Matches(r.MessageReaction) {
			return
		}
		select {
		case got <- r.MessageReaction:
		default:
		}
	})
	defer remove()

	select {
	case r := <-got:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
