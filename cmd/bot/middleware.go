package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gearsandcogs/tick/cmd/bot/config"
	"github.com/gearsandcogs/tick/cmd/bot/monitoring"
	"github.com/gearsandcogs/tick/pkg/logging"
	"github.com/gearsandcogs/tick/pkg/messages"
	"github.com/gearsandcogs/tick/pkg/request"
	"github.com/gearsandcogs/tick/pkg/ticketing"
)

const (
	// adminCommand is the supervisor-only administration command.
	adminCommand = "admin"

	// ticketCommand is the in-ticket command.
	ticketCommand = "ticket"

	// statusCommand reports the bot's status.
	statusCommand = "status"

	// helpCommand lists the available commands.
	helpCommand = "help"
)

// commandController handles one prefix command. args holds everything after
// the command word.
type commandController func(ctx context.Context, a IApp, m *discordgo.MessageCreate, args []string) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(a IApp, handler Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path // If the route does not define a path, use the URL path.
			}
		} else {
			path = r.URL.Path // If the route is nil, use the URL path.
		}

		defer func() {
			// Run the deferred function after the request has been handled, as the status code will not be available until then.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// messageHandler dispatches prefix commands to their controllers.
func messageHandler(a IApp, controllers map[string]commandController) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || m.Author.ID == a.UserID() {
			return
		}
		if !strings.HasPrefix(m.Content, config.CommandPrefix) {
			return
		}

		fields := strings.Fields(strings.TrimPrefix(m.Content, config.CommandPrefix))
		if len(fields) == 0 {
			return
		}
		cmd := strings.ToLower(fields[0])
		args := fields[1:]

		controller, ok := controllers[cmd]
		if !ok {
			reply(a, m.ChannelID, messages.ErrUnknownCommand)
			return
		}

		a.Log().Debug("Handling command",
			slog.String(logging.KeyCommand, cmd),
			slog.String(logging.KeyUser, m.Author.ID),
		)

		t := prometheus.NewTimer(monitoring.DiscordCommandDuration.WithLabelValues(cmd))
		defer t.ObserveDuration()

		if err := controller(context.Background(), a, m, args); err != nil {
			var userErr *ticketing.UserError
			if errors.As(err, &userErr) {
				reply(a, m.ChannelID, userErr.Error())
				return
			}

			a.Log().Error(fmt.Sprintf("Error processing command %s", cmd),
				slog.String(logging.KeyError, err.Error()))
			reply(a, m.ChannelID, messages.ErrUserErrorProcessing)
		}
	}
}

// pinReactionHandler routes reactions on the pinned intake message into the
// ticket lifecycle.
func pinReactionHandler(a IApp) func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	return func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if err := a.TicketService().HandlePinReaction(context.Background(), r); err != nil {
			a.Log().Error("Error handling pin reaction",
				slog.String(logging.KeyError, err.Error()),
				slog.String(logging.KeyChannel, r.ChannelID))
		}
	}
}
