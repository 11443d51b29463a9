package ticketing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"

	"github.com/gearsandcogs/tick/pkg/custom"
	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/logging"
	"github.com/gearsandcogs/tick/pkg/messages"
	"github.com/gearsandcogs/tick/pkg/perms"
	"github.com/gearsandcogs/tick/pkg/vote"
)

const ticketReview = `This ticket is seeking review.
Please read the questions and answers to get an idea for contents, to the first question: %s
To claim the review, please click the reaction.

%s`

const reviewerWelcome = `Hello reviewer <@%s>! Above is a ticket.
Please read it over and provide feedback to the requester who initiated the request.

Thank you very much.`

// Unclaim releases the current responder and runs a fresh matching round.
// While the round is open the pool regains sight of the channel and the
// former responder's standing is cleared; they may not re-claim their own
// swap request. A ticket whose earlier matching round timed out has no
// responder yet; unclaiming it simply re-runs the round.
func (s *Service) Unclaim(ctx context.Context, gc *entities.GuildConfig, cfg *entities.TicketConfig, ticket *entities.Ticket, actorUsername string) error {
	former := ticket.ResponderID
	if former == "" && ticket.State != entities.StatePending && ticket.State != entities.StateUnclaimed {
		return NewUserError("This ticket has no responder to unclaim.")
	}

	formerName := former
	if former != "" {
		if member, err := s.s.GuildMember(ticket.GuildID, former); err == nil {
			formerName = member.User.Username
		}
	}

	p := s.principals(cfg, ticket)
	p.ResponderID = ""
	p.FormerResponderID = former
	if err := s.applyOverwrites(ticket.ChannelID, perms.Unclaimed(p)); err != nil {
		return err
	}

	ticket.ResponderID = ""
	ticket.State = entities.StateUnclaimed
	ticket.UpdatedAt = custom.Now()
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return fmt.Errorf("saving unclaimed ticket: %w", err)
	}

	s.l.Info("Ticket unclaimed",
		slog.String(logging.KeyGuild, ticket.GuildID),
		slog.String(logging.KeyTicket, ticket.ID))

	round := matchRound{
		prompt:   fmt.Sprintf(ticketUnclaimed, s.jumpLink(ticket), roleMentions(cfg)),
		excluded: []string{ticket.UserID},
		action:   "Swap",
		actor:    actorUsername,
	}
	if former != "" {
		round.excluded = []string{former}
		round.detail = fmt.Sprintf("__Old Responder:__ %s", formerName)
	}
	return s.match(ctx, gc, cfg, ticket, round)
}

// Review opens the channel to the pool for a second opinion. The reviewer is
// transient: the responder of record does not change, but the ticket is
// marked reviewed once someone claims the review.
func (s *Service) Review(ctx context.Context, gc *entities.GuildConfig, cfg *entities.TicketConfig, ticket *entities.Ticket, actorUsername string) error {
	p := s.principals(cfg, ticket)
	if err := s.applyOverwrites(ticket.ChannelID, perms.ReviewOpened(p)); err != nil {
		return err
	}

	ticket.State = entities.StateReview
	ticket.UpdatedAt = custom.Now()
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return fmt.Errorf("saving ticket for review: %w", err)
	}

	overseer := s.supervisorRoleID(ticket.GuildID)
	declineUsers, declineRoles := s.declineFor(cfg, ticket.UserID, overseer)

	res := s.matcher.RequestMatch(ctx, vote.Request{
		GuildID:       ticket.GuildID,
		ChannelID:     ticket.ChannelID,
		Prompt:        fmt.Sprintf(ticketReview, s.jumpLink(ticket), roleMentions(cfg)),
		EligibleRoles: cfg.RoleIDs(),
		ExcludedUsers: []string{ticket.UserID, ticket.ResponderID},
		DeclineUsers:  declineUsers,
		DeclineRoles:  declineRoles,
		Timeout:       s.matchTimeout,
	})

	switch res.Outcome {
	case dialog.OutcomeTimedOut:
		if _, err := s.s.ChannelMessageSend(ticket.ChannelID, messages.MatchTimedOut); err != nil {
			s.l.Warn("Error posting review timeout notice", slog.String(logging.KeyError, err.Error()))
		}
		return nil
	case dialog.OutcomeCancelled:
		if _, err := s.s.ChannelMessageSend(ticket.ChannelID, messages.MatchDeclined); err != nil {
			s.l.Warn("Error posting review declined notice", slog.String(logging.KeyError, err.Error()))
		}
		return nil
	}

	reviewer := res.Value
	rp := s.principals(cfg, ticket)
	rp.FormerResponderID = ticket.ResponderID
	rp.ResponderID = reviewer.User.ID
	if err := s.applyOverwrites(ticket.ChannelID, perms.ReviewClaimed(rp)); err != nil {
		return err
	}

	ticket.State = entities.StateReviewed
	ticket.UpdatedAt = custom.Now()
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return fmt.Errorf("saving reviewed ticket: %w", err)
	}

	s.logAction(gc, "Review", actorUsername, fmt.Sprintf("__New Reviewer:__ %s", reviewer.User.Username))

	if _, err := s.s.ChannelMessageSend(ticket.ChannelID, fmt.Sprintf(reviewerWelcome, reviewer.User.ID)); err != nil {
		s.l.Warn("Error welcoming reviewer", slog.String(logging.KeyError, err.Error()))
	}
	return nil
}

// Rename changes the display part of the backing channel name; the flow
// prefix and ticket number stay so channels remain sortable and attributable.
func (s *Service) Rename(ctx context.Context, cfg *entities.TicketConfig, ticket *entities.Ticket, newName string) error {
	slug := channelSlug(newName)
	if slug == "" {
		return NewUserError("Please provide a usable name for the channel.")
	}

	name := fmt.Sprintf("%s-%d-%.60s", cfg.Prefix, ticket.Number, slug)
	if _, err := s.s.ChannelEditComplex(ticket.ChannelID, &discordgo.ChannelEdit{
		Name: name,
	}); err != nil {
		return fmt.Errorf("renaming ticket channel: %w", err)
	}

	ticket.UpdatedAt = custom.Now()
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return fmt.Errorf("saving renamed ticket: %w", err)
	}
	return nil
}

// channelSlug lowers a free-form name into a channel-safe slug.
func channelSlug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
