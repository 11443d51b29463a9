package ticketing

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/logging"
	"github.com/gearsandcogs/tick/pkg/ticketing/monitoring"
)

// historyCheckLimit spaces out the per-ticket history fetches so a large
// ticket backlog does not hammer the platform API in one burst.
var historyCheckLimit = rate.Every(250 * time.Millisecond)

// Watchdog scans every open ticket of an activity-monitored flow and forces
// the close transition on those gone quiet. One long-lived loop; it only
// returns when the context ends.
func (s *Service) Watchdog(ctx context.Context, interval time.Duration) {
	s.l.Info("Watchdog started", slog.Duration("interval", interval))

	limiter := rate.NewLimiter(historyCheckLimit, 1)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.scan(ctx, limiter)

		select {
		case <-ctx.Done():
			s.l.Info("Watchdog stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) scan(ctx context.Context, limiter *rate.Limiter) {
	tickets, err := s.tickets.ListTickets(ctx)
	if err != nil {
		s.l.Error("Error listing tickets for watchdog scan", slog.String(logging.KeyError, err.Error()))
		return
	}

	for _, ticket := range tickets {
		if err := ctx.Err(); err != nil {
			return
		}
		s.checkTicket(ctx, limiter, ticket)
	}

	monitoring.TotalWatchdogScans.Inc()
}

// checkTicket closes one ticket if its most recent message is a non-bot
// message older than the flow's inactivity threshold. Tickets whose channel
// disappeared out-of-band get their orphaned row cleaned up.
func (s *Service) checkTicket(ctx context.Context, limiter *rate.Limiter, ticket *entities.Ticket) {
	cfg, err := s.configs.GetTicketConfigByID(ctx, ticket.ConfigID)
	if err != nil {
		s.l.Warn("Error getting flow for watchdog check",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyTicket, ticket.ID))
		return
	}
	if !cfg.MonitorActivity || cfg.TimeoutSeconds <= 0 {
		return
	}

	if err := limiter.Wait(ctx); err != nil {
		return
	}

	msgs, err := s.s.ChannelMessages(ticket.ChannelID, 1, "", "", "")
	if err != nil {
		if isUnknownChannel(err) {
			s.l.Warn("Ticket channel gone, removing orphaned row",
				slog.String(logging.KeyTicket, ticket.ID),
				slog.String(logging.KeyChannel, ticket.ChannelID))
			if err := s.tickets.DeleteTicket(ctx, ticket.ID); err != nil {
				s.l.Error("Error removing orphaned ticket", slog.String(logging.KeyError, err.Error()))
			}
			return
		}
		s.l.Warn("Error fetching latest ticket message",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyChannel, ticket.ChannelID))
		return
	}

	lastAt := ticket.CreatedAt.Time()
	lastAuthor := ""
	if len(msgs) > 0 {
		lastAt = msgs[0].Timestamp
		if msgs[0].Author != nil {
			lastAuthor = msgs[0].Author.ID
		}
	}

	// The bot's own notices (including a previous inactivity warning) never
	// count as activity to close on.
	if lastAuthor == s.botID {
		return
	}
	if time.Since(lastAt) <= time.Duration(cfg.TimeoutSeconds)*time.Second {
		return
	}

	gc, err := s.guilds.GetGuildConfig(ctx, ticket.GuildID)
	if err != nil {
		s.l.Warn("Error getting guild config for watchdog close",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyGuild, ticket.GuildID))
		return
	}

	s.l.Info("Closing inactive ticket",
		slog.String(logging.KeyTicket, ticket.ID),
		slog.String(logging.KeyChannel, ticket.ChannelID))
	if err := s.Close(ctx, gc, cfg, ticket, ticket.UserID, inactiveCloseReason, true); err != nil {
		s.l.Error("Error force closing inactive ticket",
			slog.String(logging.KeyError, err.Error()),
			slog.String(logging.KeyTicket, ticket.ID))
	}
}
