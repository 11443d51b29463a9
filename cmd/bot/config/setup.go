package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/gearsandcogs/tick/pkg/dataaccess"
	"github.com/gearsandcogs/tick/pkg/dataaccess/connection"
	"github.com/gearsandcogs/tick/pkg/logging"
)

func Parse(l *slog.Logger) {
	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envMongoUri := os.Getenv(EnvMongoUri); envMongoUri != "" {
		l.Debug("Found MongoDB URI in environment", slog.String("key", EnvMongoUri))
		MongoUri = envMongoUri
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"

		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	if envPrefix := os.Getenv(EnvCommandPrefix); envPrefix != "" {
		l.Debug("Found command prefix in environment", slog.String("key", EnvCommandPrefix))
		CommandPrefix = envPrefix
	} else {
		// Default to "!" if not provided.
		CommandPrefix = "!"

		l.Info("No command prefix provided in environment, defaulting to !", slog.String("key", EnvCommandPrefix))
	}

	if envRole := os.Getenv(EnvSupervisorRole); envRole != "" {
		l.Debug("Found supervisor role in environment", slog.String("key", EnvSupervisorRole))
		SupervisorRole = envRole
	} else {
		// Default to the conventional role name if not provided.
		SupervisorRole = "Ticket Supervisor"

		l.Info("No supervisor role provided in environment, defaulting to Ticket Supervisor", slog.String("key", EnvSupervisorRole))
	}

	if envInterval := os.Getenv(EnvWatchdogInterval); envInterval != "" {
		interval, err := time.ParseDuration(envInterval)
		if err != nil {
			l.Error("Invalid watchdog interval in environment",
				slog.String("key", EnvWatchdogInterval),
				slog.String(logging.KeyError, err.Error()))
			os.Exit(1)
		}
		WatchdogInterval = interval
	} else {
		// Default to five minutes between scans if not provided.
		WatchdogInterval = 5 * time.Minute

		l.Info("No watchdog interval provided in environment, defaulting to 5m", slog.String("key", EnvWatchdogInterval))
	}

	if BotToken != "" &&
		MongoUri != "" {

		// All required environment variables have been provided.
		l.Debug("All required environment variables have been provided")
		connectMongo(l)
		return
	}
}

func connectMongo(l *slog.Logger) {
	mongoConn := new(connection.MongoDB)
	mongoConn.ConnectionString = MongoUri

	db, err := mongoConn.Connect()
	if err != nil {
		l.Error("Error connecting to mongo", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	} else if db == nil {
		l.Error("MongoDB came back nil", slog.String(logging.KeyError, "MongoDB came back nil"))
		os.Exit(1)
	}

	dataaccess.MongoDB = db

	l.Debug("Connected to MongoDB", slog.String("key", EnvMongoUri))
}
