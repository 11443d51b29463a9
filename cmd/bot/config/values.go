package config

import "time"

const (
	// AppName is the name of the application.
	AppName = "tick"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvCommandPrefix is the environment variable for the command prefix.
	EnvCommandPrefix = `COMMAND_PREFIX`

	// EnvSupervisorRole is the environment variable for the name of the
	// supervisory role.
	EnvSupervisorRole = `SUPERVISOR_ROLE`

	// EnvWatchdogInterval is the environment variable for the interval between
	// inactivity scans.
	EnvWatchdogInterval = `WATCHDOG_INTERVAL`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// MongoUri is the URI for the MongoDB database.
	MongoUri string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// CommandPrefix is the prefix that marks a message as a command.
	CommandPrefix string

	// SupervisorRole is the name of the supervisory role.
	SupervisorRole string

	// WatchdogInterval is the interval between inactivity scans.
	WatchdogInterval time.Duration
)
