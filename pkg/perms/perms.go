// Package perms computes the permission-overwrite maps for ticket channels.
// Every transition returns the full map for the channel; the caller replaces
// the channel's overwrites wholesale rather than patching per principal.
package perms

import (
	"github.com/Jacobbrewer1/discordgo"
)

// Preset allow/deny masks for the principals involved in a ticket.
const (
	// maskUser is the standard participant grant.
	maskUser = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionAddReactions

	// maskBot is everything the bot needs to run a ticket channel.
	maskBot = maskUser |
		discordgo.PermissionManageMessages |
		discordgo.PermissionManageChannels |
		discordgo.PermissionManageRoles

	// maskOverseer is the elevated supervisor grant.
	maskOverseer = maskUser |
		discordgo.PermissionManageMessages |
		discordgo.PermissionModerateMembers

	// maskNothing is the strict deny, hiding the channel entirely.
	maskNothing = maskUser
)

// Principals identifies everyone a transition may grant or revoke.
type Principals struct {
	// GuildID doubles as the @everyone role ID.
	GuildID string

	// BotID is the bot's own user ID.
	BotID string

	// RequesterID is the ticket requester.
	RequesterID string

	// ResponderID is the current responder, if any.
	ResponderID string

	// FormerResponderID is the responder being replaced, if any.
	FormerResponderID string

	// RoleIDs are the flow's eligible responder roles.
	RoleIDs []string

	// OverseerRoleID is the supervisor role, if configured.
	OverseerRoleID string
}

// User grants standard participant access to a member.
func User(userID string) *discordgo.PermissionOverwrite {
	return &discordgo.PermissionOverwrite{
		ID:    userID,
		Type:  discordgo.PermissionOverwriteTypeMember,
		Allow: maskUser,
	}
}

// Bot grants the bot full control of the channel.
func Bot(botID string) *discordgo.PermissionOverwrite {
	return &discordgo.PermissionOverwrite{
		ID:    botID,
		Type:  discordgo.PermissionOverwriteTypeMember,
		Allow: maskBot,
	}
}

// None clears a member's standing entirely. A zero overwrite neither grants
// nor denies, so the member falls back to whatever the role grants say.
func None(userID string) *discordgo.PermissionOverwrite {
	return &discordgo.PermissionOverwrite{
		ID:   userID,
		Type: discordgo.PermissionOverwriteTypeMember,
	}
}

// Nothing explicitly denies a role any sight of the channel.
func Nothing(roleID string) *discordgo.PermissionOverwrite {
	return &discordgo.PermissionOverwrite{
		ID:   roleID,
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: maskNothing,
	}
}

// RoleUser grants standard participant access to a role.
func RoleUser(roleID string) *discordgo.PermissionOverwrite {
	return &discordgo.PermissionOverwrite{
		ID:    roleID,
		Type:  discordgo.PermissionOverwriteTypeRole,
		Allow: maskUser,
	}
}

// Overseer grants the supervisor role its elevated access.
func Overseer(roleID string) *discordgo.PermissionOverwrite {
	return &discordgo.PermissionOverwrite{
		ID:    roleID,
		Type:  discordgo.PermissionOverwriteTypeRole,
		Allow: maskOverseer,
	}
}

// base is the overwrites every ticket channel carries in every state: the
// channel is hidden from the guild, the bot controls it, the requester
// participates, and the supervisor (when configured) oversees it.
func base(p Principals) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		Nothing(p.GuildID),
		Bot(p.BotID),
		User(p.RequesterID),
	}
	if p.OverseerRoleID != "" {
		overwrites = append(overwrites, Overseer(p.OverseerRoleID))
	}
	return overwrites
}

// Created is the initial map for a freshly opened ticket: the responder pool
// can see the channel so that someone may claim it.
func Created(p Principals) []*discordgo.PermissionOverwrite {
	overwrites := base(p)
	for _, roleID := range p.RoleIDs {
		overwrites = append(overwrites, RoleUser(roleID))
	}
	return overwrites
}

// Claimed locks the channel to the requester and the accepted responder; the
// pool loses sight of it.
func Claimed(p Principals) []*discordgo.PermissionOverwrite {
	overwrites := base(p)
	for _, roleID := range p.RoleIDs {
		overwrites = append(overwrites, Nothing(roleID))
	}
	return append(overwrites, User(p.ResponderID))
}

// Unclaimed re-opens the pool and clears the former responder's standing
// without granting them anything back.
func Unclaimed(p Principals) []*discordgo.PermissionOverwrite {
	overwrites := base(p)
	for _, roleID := range p.RoleIDs {
		overwrites = append(overwrites, RoleUser(roleID))
	}
	if p.FormerResponderID != "" {
		overwrites = append(overwrites, None(p.FormerResponderID))
	}
	return overwrites
}

// ReviewOpened opens the channel to the pool for a second opinion while the
// current responder keeps their seat.
func ReviewOpened(p Principals) []*discordgo.PermissionOverwrite {
	overwrites := base(p)
	for _, roleID := range p.RoleIDs {
		overwrites = append(overwrites, RoleUser(roleID))
	}
	if p.ResponderID != "" {
		overwrites = append(overwrites, User(p.ResponderID))
	}
	return overwrites
}

// ReviewClaimed hands the ticket to the reviewer; the pool is shut out again
// and the prior responder keeps participant access as a party to the review.
func ReviewClaimed(p Principals) []*discordgo.PermissionOverwrite {
	overwrites := base(p)
	for _, roleID := range p.RoleIDs {
		overwrites = append(overwrites, Nothing(roleID))
	}
	if p.FormerResponderID != "" {
		overwrites = append(overwrites, User(p.FormerResponderID))
	}
	return append(overwrites, User(p.ResponderID))
}
