// Package messages holds the user facing reply strings for the bot.
package messages

const (
	// ErrUserErrorProcessing is sent when a command fails for an unknown reason.
	ErrUserErrorProcessing = "Something went wrong processing your command. Please try again."

	// ErrNotTicketChannel is sent when a ticket command is used outside a ticket channel.
	ErrNotTicketChannel = "I can only do that inside ticket channels."

	// ErrNotConfigured is sent when the guild has no ticket configuration yet.
	ErrNotConfigured = "Tickets are not configured here. Please ask an admin to run setup."

	// ErrNotSupervisor is sent when a non supervisor uses an admin command.
	ErrNotSupervisor = "You are not a Ticket Supervisor. Please see an admin."

	// ErrInvalidSubcommand is sent on an unknown subcommand.
	ErrInvalidSubcommand = "Invalid selection. Please check the command help."

	// ErrUnknownCommand is sent on an unknown command word.
	ErrUnknownCommand = "Unknown command. Use the help command to see what is available."

	// DialogCancelled is sent when the user cancels an interactive dialog.
	DialogCancelled = "Cancelled. No changes have been made."

	// DialogTimedOut is sent when an interactive dialog times out.
	DialogTimedOut = "Timed out waiting for a response. Please start again when ready."

	// MatchTimedOut is sent when no responder claimed a request in time.
	MatchTimedOut = "No responder was available in time. Please try again later."

	// MatchDeclined is sent when a matching request was declined.
	MatchDeclined = "The request was declined. This ticket stays open for now."

	// CloseCancelled is sent when a ticket close is cancelled or declined.
	CloseCancelled = "Cancelling ticket close."

	// CloseDMFailed is sent when the requested DM log could not be delivered.
	CloseDMFailed = `Cannot DM the log of this ticket to the user who requested it.
%s please enable DMs or do not request DMed logs during close.

Aborting this attempt to close ticket.`
)
