package ticketing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/gearsandcogs/tick/pkg/archive"
	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/logging"
	"github.com/gearsandcogs/tick/pkg/messages"
	"github.com/gearsandcogs/tick/pkg/ticketing/monitoring"
)

const (
	closeConfirm = "Please confirm that you want to close this ticket."

	dmLogConfirm = "Would you like a copy of the ticket log sent to you by direct message?"

	dmLogMessage = "The log of your support session. Take care."

	inactivityWarning = `Inactivity has been detected on this channel.

Pinging users to provide the option to keep this ticket. By default if no response is provided this ticket will be closed.`

	defaultCloseReason = "Ticket over."

	inactiveCloseReason = "Inactive ticket."
)

// Close runs the irreversible close transition: confirmation, DM-log offer,
// transcript archive, log delivery, then channel and row deletion, in that
// order. If a requested DM log cannot be delivered the close aborts entirely
// and the ticket stays open; a partially completed close never happens.
//
// The forced variant (watchdog) posts an inactivity warning instead of the
// first confirmation and defaults the DM-log offer to "no" on timeout.
func (s *Service) Close(ctx context.Context, gc *entities.GuildConfig, cfg *entities.TicketConfig, ticket *entities.Ticket, actorID, reason string, forced bool) error {
	chanID := ticket.ChannelID

	if forced {
		if _, err := s.s.ChannelMessageSend(chanID, fmt.Sprintf("<@%s>\n%s", ticket.UserID, inactivityWarning)); err != nil {
			s.l.Warn("Error posting inactivity warning", slog.String(logging.KeyError, err.Error()))
		}
	} else {
		res := s.asker.Confirm(ctx, chanID, closeConfirm, actorID, s.responseTimeout)
		if !res.Completed() || !res.Value {
			if _, err := s.s.ChannelMessageSend(chanID, messages.CloseCancelled); err != nil {
				s.l.Warn("Error posting close cancel notice", slog.String(logging.KeyError, err.Error()))
			}
			return nil
		}
	}

	// A non-answer means no DM; the close itself is already decided.
	dmActor := actorID
	if forced {
		dmActor = ticket.UserID
	}
	dmLog := false
	if res := s.asker.Confirm(ctx, chanID, dmLogConfirm, dmActor, s.responseTimeout); res.Outcome == dialog.OutcomeCompleted {
		dmLog = res.Value
	}

	name := ticket.ChannelName(cfg.Prefix)
	if ch, err := s.s.Channel(chanID); err == nil && ch.Name != "" {
		name = ch.Name
	}

	tmpDir, err := os.MkdirTemp("", "ticket-"+uuid.New().String())
	if err != nil {
		return fmt.Errorf("creating transcript dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			s.l.Warn("Error removing transcript dir", slog.String(logging.KeyError, err.Error()))
		}
	}()

	fname := filepath.Join(tmpDir, name+".txt")
	if err := s.writeTranscript(fname, chanID, name, ticket); err != nil {
		return err
	}

	if dmLog {
		if aborted, err := s.dmTranscript(ticket, fname, name); err != nil {
			return err
		} else if aborted {
			// Requested log could not be delivered; the ticket stays open.
			return nil
		}
	}

	if reason == "" {
		reason = defaultCloseReason
	}

	if gc.LogChannelID != "" {
		f, err := os.Open(fname)
		if err != nil {
			return fmt.Errorf("opening transcript: %w", err)
		}
		content := fmt.Sprintf(logTemplate, "Ticket Closed", ticket.Username, "__Reason:__ "+reason)
		_, sendErr := s.s.ChannelFileSendWithMessage(gc.LogChannelID, content, name+".txt", f)
		if err := f.Close(); err != nil {
			s.l.Warn("Error closing transcript file", slog.String(logging.KeyError, err.Error()))
		}
		if sendErr != nil {
			// Without the archived transcript delivered the close must not
			// destroy the channel.
			return fmt.Errorf("delivering transcript to log channel: %w", sendErr)
		}
	}

	if _, err := s.s.ChannelDelete(chanID); err != nil {
		return fmt.Errorf("deleting ticket channel: %w", err)
	}
	if err := s.tickets.DeleteTicket(ctx, ticket.ID); err != nil {
		return fmt.Errorf("deleting ticket row: %w", err)
	}

	closedBy := "requested"
	if forced {
		closedBy = "inactive"
	}
	monitoring.TotalTicketsClosed.WithLabelValues(closedBy).Inc()

	s.l.Info("Ticket closed",
		slog.String(logging.KeyGuild, ticket.GuildID),
		slog.String(logging.KeyTicket, ticket.ID),
		slog.String("reason", reason))
	return nil
}

// writeTranscript archives the full channel history to fname.
func (s *Service) writeTranscript(fname, chanID, name string, ticket *entities.Ticket) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("creating transcript file: %w", err)
	}

	header := archive.Header{
		Name:   name,
		Author: ticket.Username,
		Opened: ticket.CreatedAt.Time(),
		Closed: time.Now().UTC(),
	}
	writeErr := archive.NewArchiver(s.s).Write(f, chanID, header)
	if err := f.Close(); err != nil {
		s.l.Warn("Error closing transcript file", slog.String(logging.KeyError, err.Error()))
	}
	if writeErr != nil {
		return fmt.Errorf("archiving ticket transcript: %w", writeErr)
	}
	return nil
}

// dmTranscript delivers the transcript to the requester by DM. A Forbidden
// response means the requester disallows DMs; the caller must then abort the
// close. aborted is true in exactly that case.
func (s *Service) dmTranscript(ticket *entities.Ticket, fname, name string) (aborted bool, err error) {
	dm, err := s.s.UserChannelCreate(ticket.UserID)
	if err != nil {
		if isForbidden(err) {
			return true, s.notifyDMFailed(ticket)
		}
		return false, fmt.Errorf("opening DM channel: %w", err)
	}

	f, err := os.Open(fname)
	if err != nil {
		return false, fmt.Errorf("opening transcript: %w", err)
	}
	_, sendErr := s.s.ChannelFileSendWithMessage(dm.ID, dmLogMessage, name+".txt", f)
	if err := f.Close(); err != nil {
		s.l.Warn("Error closing transcript file", slog.String(logging.KeyError, err.Error()))
	}
	if sendErr != nil {
		if isForbidden(sendErr) {
			return true, s.notifyDMFailed(ticket)
		}
		return false, fmt.Errorf("sending transcript DM: %w", sendErr)
	}
	return false, nil
}

func (s *Service) notifyDMFailed(ticket *entities.Ticket) error {
	if _, err := s.s.ChannelMessageSend(ticket.ChannelID, fmt.Sprintf(messages.CloseDMFailed, ticket.Username)); err != nil {
		return fmt.Errorf("posting DM failure notice: %w", err)
	}
	return nil
}
