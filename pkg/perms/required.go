package perms

import (
	"github.com/Jacobbrewer1/discordgo"
)

// Masks the bot itself must hold on the configured channels before they can
// be accepted during setup.
const (
	// CategoryRequired covers creating and reacting inside the ticket category.
	CategoryRequired = discordgo.PermissionViewChannel |
		discordgo.PermissionManageChannels |
		discordgo.PermissionAddReactions

	// LogRequired covers posting transcripts to the log channel.
	LogRequired = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionAttachFiles

	// SupportRequired covers managing the pinned trigger message.
	SupportRequired = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionManageMessages |
		discordgo.PermissionAddReactions
)

// permissionNames maps each checked bit to its display name, in display order.
var permissionNames = []struct {
	bit  int64
	name string
}{
	{discordgo.PermissionAddReactions, "Add Reactions"},
	{discordgo.PermissionAttachFiles, "Attach Files"},
	{discordgo.PermissionManageChannels, "Manage Channels"},
	{discordgo.PermissionManageMessages, "Manage Messages"},
	{discordgo.PermissionManageRoles, "Manage Permissions"},
	{discordgo.PermissionViewChannel, "Read Messages"},
	{discordgo.PermissionReadMessageHistory, "Read Message History"},
	{discordgo.PermissionSendMessages, "Send Messages"},
}

// Missing returns the display names of the required bits absent from held.
func Missing(held, required int64) []string {
	missing := required &^ held
	if missing == 0 {
		return nil
	}

	names := make([]string, 0, len(permissionNames))
	for _, p := range permissionNames {
		if missing&p.bit != 0 {
			names = append(names, p.name)
		}
	}
	return names
}
