package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gearsandcogs/tick/cmd/bot/config"
	"github.com/gearsandcogs/tick/cmd/bot/monitoring"
	"github.com/gearsandcogs/tick/pkg/dataaccess"
	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/logging"
	"github.com/gearsandcogs/tick/pkg/request"
	"github.com/gearsandcogs/tick/pkg/ticketing"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"

	// responseTimeout bounds each interactive dialog wait.
	responseTimeout = 5 * time.Minute

	// matchTimeout bounds each responder matching round.
	matchTimeout = 15 * time.Minute
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the application logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// UserID returns the bot's own user ID.
	UserID() string

	// Uptime returns how long the application has been running.
	Uptime() time.Duration

	// TicketService returns the ticket lifecycle service.
	TicketService() *ticketing.Service

	// Asker returns the interactive dialog engine.
	Asker() *dialog.Asker

	// Stream returns the event stream dialogs wait on.
	Stream() dialog.Stream

	// GuildConfigs returns the guild configuration store.
	GuildConfigs() dataaccess.GuildConfigDal

	// TicketConfigs returns the ticket flow configuration store.
	TicketConfigs() dataaccess.TicketConfigDal

	// Tickets returns the ticket store.
	Tickets() dataaccess.TicketDal
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// userID is the bot's own user ID.
	userID string

	// start is when the application started.
	start time.Time

	// svc is the ticket lifecycle service.
	svc *ticketing.Service

	// asker is the interactive dialog engine.
	asker *dialog.Asker

	// stream is the event stream dialogs wait on.
	stream dialog.Stream

	// guilds is the guild configuration store.
	guilds dataaccess.GuildConfigDal

	// configs is the ticket flow configuration store.
	configs dataaccess.TicketConfigDal

	// tickets is the ticket store.
	tickets dataaccess.TicketDal

	// stopWatchdog cancels the inactivity watchdog.
	stopWatchdog context.CancelFunc
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger: l,
		r:      r,
		start:  time.Now().UTC(),
	}
}

func (a *App) Run() error {
	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	if err := a.RegisterServices(); err != nil {
		return fmt.Errorf("error registering services: %w", err)
	}

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.Info("Bot is now running.")

	// Start the inactivity watchdog.
	watchdogCtx, cancel := context.WithCancel(context.Background())
	a.stopWatchdog = cancel
	go a.svc.Watchdog(watchdogCtx, config.WatchdogInterval)

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Stop the inactivity watchdog.
	if a.stopWatchdog != nil {
		a.stopWatchdog()
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Create event notifier. This is used to runServer events. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	return nil
}

// RegisterServices builds the stores and the ticket lifecycle service around
// the discord session.
func (a *App) RegisterServices() error {
	me, err := a.s.User("@me")
	if err != nil {
		return fmt.Errorf("error getting bot user: %w", err)
	}
	a.userID = me.ID

	a.guilds = dataaccess.NewGuildConfigDal(a.Logger)
	a.configs = dataaccess.NewTicketConfigDal(a.Logger)
	a.tickets = dataaccess.NewTicketDal(a.Logger)

	a.stream = dialog.NewSessionStream(a.s)
	a.asker = dialog.NewAsker(a.Logger, newDiscordSession(a.s), a.stream, a.userID)

	a.svc = ticketing.NewService(
		a.Logger,
		newDiscordSession(a.s),
		a.stream,
		a.guilds,
		a.configs,
		a.tickets,
		a.userID,
		config.CommandPrefix,
		config.SupervisorRole,
		responseTimeout,
		matchTimeout,
	)
	return nil
}

func (a *App) runServer() {
	go func() {
		slog.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a, a.healthCheck())).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + config.MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Reaction on the pinned intake message opens a ticket.
	a.s.AddHandler(pinReactionHandler(a))

	// Prefix command handler.
	a.s.AddHandler(messageHandler(a,
		map[string]commandController{
			adminCommand:  adminController,
			ticketCommand: ticketController,
			statusCommand: statusController,
			helpCommand:   helpController,
		}))
	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) UserID() string {
	return a.userID
}

func (a *App) Uptime() time.Duration {
	return time.Since(a.start)
}

func (a *App) TicketService() *ticketing.Service {
	return a.svc
}

func (a *App) Asker() *dialog.Asker {
	return a.asker
}

func (a *App) Stream() dialog.Stream {
	return a.stream
}

func (a *App) GuildConfigs() dataaccess.GuildConfigDal {
	return a.guilds
}

func (a *App) TicketConfigs() dataaccess.TicketConfigDal {
	return a.configs
}

func (a *App) Tickets() dataaccess.TicketDal {
	return a.tickets
}
