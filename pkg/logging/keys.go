package logging

const (
	// KeyAppName is the key for the application name.
	KeyAppName = `app`

	// KeyError is the key for an error.
	KeyError = `err`

	// KeyDal is the key for the data access layer.
	KeyDal = `dal`

	// KeyGuild is the key for a guild ID.
	KeyGuild = `guild`

	// KeyChannel is the key for a channel ID.
	KeyChannel = `channel`

	// KeyTicket is the key for a ticket ID.
	KeyTicket = `ticket`

	// KeyCommand is the key for a command name.
	KeyCommand = `command`

	// KeyUser is the key for a user ID.
	KeyUser = `user`
)
