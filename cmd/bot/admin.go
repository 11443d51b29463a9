package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/gearsandcogs/tick/pkg/dataaccess"
	"github.com/gearsandcogs/tick/pkg/dialog"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/messages"
	"github.com/gearsandcogs/tick/pkg/perms"
	"github.com/gearsandcogs/tick/pkg/ticketing"
)

// adminController gates the administration subcommands behind the supervisory
// role and dispatches them through a closed switch.
func adminController(ctx context.Context, a IApp, m *discordgo.MessageCreate, args []string) error {
	if m.GuildID == "" {
		reply(a, m.ChannelID, messages.ErrNotTicketChannel)
		return nil
	}
	if !isSupervisor(a, m) {
		reply(a, m.ChannelID, messages.ErrNotSupervisor)
		return nil
	}
	if len(args) == 0 {
		reply(a, m.ChannelID, messages.ErrInvalidSubcommand)
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "setup":
		return adminSetup(ctx, a, m)
	case "pin":
		return adminPin(ctx, a, m)
	case "ticket_setup":
		if len(args) < 2 {
			reply(a, m.ChannelID, "Please name the flow, e.g. `ticket_setup support`.")
			return nil
		}
		return adminTicketSetup(ctx, a, m, strings.ToLower(args[1]))
	case "questions":
		if len(args) < 2 {
			reply(a, m.ChannelID, "Please name the flow, e.g. `questions support`.")
			return nil
		}
		return adminQuestions(ctx, a, m, strings.ToLower(args[1]))
	case "ticket_remove":
		if len(args) < 2 {
			reply(a, m.ChannelID, "Please name the flow, e.g. `ticket_remove support`.")
			return nil
		}
		return adminTicketRemove(ctx, a, m, strings.ToLower(args[1]))
	case "summary":
		return adminSummary(ctx, a, m)
	default:
		reply(a, m.ChannelID, messages.ErrInvalidSubcommand)
		return nil
	}
}

// adminSetup walks the guild wizard: log channel, intake channel, category.
// Each candidate is validated for the permissions the bot needs there.
func adminSetup(ctx context.Context, a IApp, m *discordgo.MessageCreate) error {
	gc, err := a.GuildConfigs().GetGuildConfig(ctx, m.GuildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		gc = &entities.GuildConfig{ID: m.GuildID}
	} else if err != nil {
		return fmt.Errorf("getting guild config: %w", err)
	}
	oldIntake := gc.TicketChannelID
	oldPin := gc.PinnedMessageID

	logChan, ok := askChannel(ctx, a, m,
		"Which channel should ticket logs be sent to? Mention it or paste its ID.",
		perms.LogRequired, discordgo.ChannelTypeGuildText)
	if !ok {
		return nil
	}
	gc.LogChannelID = logChan

	intakeChan, ok := askChannel(ctx, a, m,
		"Which channel should tickets be opened from? Mention it or paste its ID.",
		perms.SupportRequired, discordgo.ChannelTypeGuildText)
	if !ok {
		return nil
	}
	gc.TicketChannelID = intakeChan

	category, ok := askChannel(ctx, a, m,
		"Which category should ticket channels be created under? Paste its ID.",
		perms.CategoryRequired, discordgo.ChannelTypeGuildCategory)
	if !ok {
		return nil
	}
	gc.CategoryChannelID = category

	dropStalePin(a.Log(), newDiscordSession(a.Session()), gc, oldIntake, oldPin)

	if err := a.GuildConfigs().SaveGuildConfig(ctx, gc); err != nil {
		return fmt.Errorf("saving guild config: %w", err)
	}

	reply(a, m.ChannelID, "Setup complete. Configure a flow with `ticket_setup <name>` and then run `pin`.")
	return nil
}

// dropStalePin removes the pinned intake message when setup moved intake to a
// different channel. The pin lives in the old channel, so the delete must
// target it there; the cleared ID makes the next pin command start fresh.
func dropStalePin(l *slog.Logger, m dialog.Messenger, gc *entities.GuildConfig, oldChannelID, oldPinID string) {
	if oldPinID == "" || oldChannelID == "" || oldChannelID == gc.TicketChannelID {
		return
	}
	if err := m.ChannelMessageDelete(oldChannelID, oldPinID); err != nil {
		l.Warn("Error deleting old pinned message", logErr(err))
	}
	gc.PinnedMessageID = ""
}

// askChannel prompts for a channel and validates its type and the bot's
// permissions in it. Returns the channel ID and whether the dialog completed.
func askChannel(ctx context.Context, a IApp, m *discordgo.MessageCreate, prompt string, required int64, wantType discordgo.ChannelType) (string, bool) {
	filter := dialog.MessageFilter{
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
	}

	validate := func(content string) error {
		channelID := parseChannelID(content)

		channel, err := a.Session().Channel(channelID)
		if err != nil {
			return errors.New("I cannot see that channel. Please try another one.")
		}
		if channel.GuildID != m.GuildID {
			return errors.New("That channel is not in this guild. Please try another one.")
		}
		if channel.Type != wantType {
			return errors.New("That channel is the wrong kind. Please try another one.")
		}

		held, err := a.Session().UserChannelPermissions(a.UserID(), channelID)
		if err != nil {
			return errors.New("I could not check my permissions there. Please try another one.")
		}
		if missing := perms.Missing(held, required); len(missing) > 0 {
			return fmt.Errorf("I am missing permissions in that channel: %s.", strings.Join(missing, ", "))
		}
		return nil
	}

	res := a.Asker().Ask(ctx, filter, prompt, validate, responseTimeout)
	if !renderOutcome(a, m.ChannelID, res.Outcome) {
		return "", false
	}
	return parseChannelID(res.Value), true
}

// adminPin creates or replaces the pinned intake message and seeds it with
// every flow's trigger emoji.
func adminPin(ctx context.Context, a IApp, m *discordgo.MessageCreate) error {
	gc, err := a.GuildConfigs().GetGuildConfig(ctx, m.GuildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return ticketing.NewUserError(messages.ErrNotConfigured)
	} else if err != nil {
		return fmt.Errorf("getting guild config: %w", err)
	}
	if !gc.Configured() {
		return ticketing.NewUserError(messages.ErrNotConfigured)
	}

	flows, err := a.TicketConfigs().ListTicketConfigs(ctx, m.GuildID)
	if err != nil {
		return fmt.Errorf("listing flows: %w", err)
	}
	if len(flows) == 0 {
		reply(a, m.ChannelID, "No flows are configured yet. Run `ticket_setup <name>` first.")
		return nil
	}

	var b strings.Builder
	b.WriteString("**Open a ticket**\nReact to this message to open a private ticket:\n")
	for _, flow := range flows {
		if !flow.Configured() {
			continue
		}
		b.WriteString(fmt.Sprintf("%s - %s\n", emojiToken(a, m.GuildID, flow.EmojiID), flow.Name))
	}

	// Replace the old pin, if any.
	if gc.PinnedMessageID != "" {
		if err := a.Session().ChannelMessageDelete(gc.TicketChannelID, gc.PinnedMessageID); err != nil {
			a.Log().Warn("Error deleting old pinned message", logErr(err))
		}
	}

	pin, err := a.Session().ChannelMessageSend(gc.TicketChannelID, b.String())
	if err != nil {
		return fmt.Errorf("sending pinned message: %w", err)
	}
	if err := a.Session().ChannelMessagePin(gc.TicketChannelID, pin.ID); err != nil {
		a.Log().Warn("Error pinning intake message", logErr(err))
	}

	for _, flow := range flows {
		if !flow.Configured() {
			continue
		}
		if err := a.Session().MessageReactionAdd(gc.TicketChannelID, pin.ID, emojiToken(a, m.GuildID, flow.EmojiID)); err != nil {
			a.Log().Warn("Error seeding pin reaction", logErr(err))
		}
	}

	gc.PinnedMessageID = pin.ID
	if err := a.GuildConfigs().SaveGuildConfig(ctx, gc); err != nil {
		return fmt.Errorf("saving guild config: %w", err)
	}

	reply(a, m.ChannelID, "Pinned intake message is ready.")
	return nil
}

// adminTicketSetup walks the flow wizard: prefix, trigger emoji, activity
// monitoring, decline policy and responder roles.
func adminTicketSetup(ctx context.Context, a IApp, m *discordgo.MessageCreate, name string) error {
	cfg, err := a.TicketConfigs().GetTicketConfig(ctx, m.GuildID, name)
	if errors.Is(err, dataaccess.ErrNotFound) {
		cfg = &entities.TicketConfig{
			ID:      uuid.New().String(),
			GuildID: m.GuildID,
			Name:    name,
		}
	} else if err != nil {
		return fmt.Errorf("getting flow: %w", err)
	}

	filter := dialog.MessageFilter{
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
	}

	// Prefix.
	prefixRes := a.Asker().Ask(ctx, filter,
		"What channel name prefix should tickets of this flow use? One short lowercase word.",
		func(content string) error {
			prefix := strings.ToLower(strings.TrimSpace(content))
			if prefix == "" || strings.ContainsAny(prefix, " \t") {
				return errors.New("The prefix must be a single word.")
			}
			inUse, err := a.TicketConfigs().PrefixInUse(ctx, m.GuildID, prefix, cfg.ID)
			if err != nil {
				return errors.New("I could not check that prefix. Please try another one.")
			}
			if inUse {
				return errors.New("That prefix is already used by another flow.")
			}
			return nil
		}, responseTimeout)
	if !renderOutcome(a, m.ChannelID, prefixRes.Outcome) {
		return nil
	}
	cfg.Prefix = strings.ToLower(strings.TrimSpace(prefixRes.Value))

	// Trigger emoji, captured as a reaction.
	emojiRes := askEmoji(ctx, a, m.ChannelID, m.Author.ID,
		"React to this message with the emoji that should open tickets of this flow.")
	if !renderOutcome(a, m.ChannelID, emojiRes.Outcome) {
		return nil
	}
	emojiID := emojiRes.Value.ID
	if emojiID == "" {
		emojiID = emojiRes.Value.APIName()
	}
	inUse, err := a.TicketConfigs().EmojiInUse(ctx, m.GuildID, emojiID, cfg.ID)
	if err != nil {
		return fmt.Errorf("checking emoji: %w", err)
	}
	if inUse {
		reply(a, m.ChannelID, "That emoji is already used by another flow. "+messages.DialogCancelled)
		return nil
	}
	cfg.EmojiID = emojiID

	// Activity monitoring.
	monitorRes := a.Asker().Confirm(ctx, m.ChannelID,
		"Should inactive tickets of this flow be closed automatically?",
		m.Author.ID, responseTimeout)
	if !renderOutcome(a, m.ChannelID, monitorRes.Outcome) {
		return nil
	}
	cfg.MonitorActivity = monitorRes.Value
	if cfg.MonitorActivity {
		timeoutRes := a.Asker().Ask(ctx, filter,
			"After how many seconds without activity should a ticket close?",
			func(content string) error {
				secs, err := strconv.Atoi(strings.TrimSpace(content))
				if err != nil || secs <= 0 {
					return errors.New("Please give a positive whole number of seconds.")
				}
				return nil
			}, responseTimeout)
		if !renderOutcome(a, m.ChannelID, timeoutRes.Outcome) {
			return nil
		}
		cfg.TimeoutSeconds, _ = strconv.Atoi(strings.TrimSpace(timeoutRes.Value))
	}

	// Decline policy.
	policyRes := a.Asker().Ask(ctx, filter,
		"Who may decline a responder request? Answer `requester`, `supervisor` or `both`.",
		func(content string) error {
			switch strings.ToLower(strings.TrimSpace(content)) {
			case string(entities.DeclineRequester), string(entities.DeclineSupervisor), string(entities.DeclineBoth):
				return nil
			default:
				return errors.New("Please answer `requester`, `supervisor` or `both`.")
			}
		}, responseTimeout)
	if !renderOutcome(a, m.ChannelID, policyRes.Outcome) {
		return nil
	}
	cfg.DeclinePolicy = entities.DeclinePolicy(strings.ToLower(strings.TrimSpace(policyRes.Value)))

	// Practice flag.
	practiceRes := a.Asker().Confirm(ctx, m.ChannelID,
		"Is this a practice flow?", m.Author.ID, responseTimeout)
	if !renderOutcome(a, m.ChannelID, practiceRes.Outcome) {
		return nil
	}
	cfg.Practice = practiceRes.Value

	// Responder roles.
	rolesRes := a.Asker().Ask(ctx, filter,
		"Mention every role that may respond to tickets of this flow, in one message.",
		func(content string) error {
			if len(parseRoleMentions(content)) == 0 {
				return errors.New("Please mention at least one role.")
			}
			return nil
		}, responseTimeout)
	if !renderOutcome(a, m.ChannelID, rolesRes.Outcome) {
		return nil
	}
	roleIDs := parseRoleMentions(rolesRes.Value)

	guildRoles, err := a.Session().GuildRoles(m.GuildID)
	if err != nil {
		return fmt.Errorf("listing guild roles: %w", err)
	}
	roleNames := make(map[string]string, len(guildRoles))
	for _, role := range guildRoles {
		roleNames[role.ID] = role.Name
	}

	cfg.Roles = make([]entities.ResponderRole, 0, len(roleIDs))
	for _, id := range roleIDs {
		cfg.Roles = append(cfg.Roles, entities.ResponderRole{
			RoleID:   id,
			RoleText: roleNames[id],
		})
	}

	if err := a.TicketConfigs().SaveTicketConfig(ctx, cfg); err != nil {
		return fmt.Errorf("saving flow: %w", err)
	}

	reply(a, m.ChannelID, fmt.Sprintf("Flow **%s** saved. Add intake questions with `questions %s`, then re-run `pin`.", cfg.Name, cfg.Name))
	return nil
}

// adminQuestions reviews the intake questions of a flow: each existing
// question is kept or dropped, then new ones are appended.
func adminQuestions(ctx context.Context, a IApp, m *discordgo.MessageCreate, name string) error {
	cfg, err := a.TicketConfigs().GetTicketConfig(ctx, m.GuildID, name)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return ticketing.NewUserError(fmt.Sprintf("There is no flow named **%s**.", name))
	} else if err != nil {
		return fmt.Errorf("getting flow: %w", err)
	}

	filter := dialog.MessageFilter{
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
	}

	kept := make([]entities.Question, 0, len(cfg.Questions))
	for _, q := range cfg.Questions {
		keepRes := a.Asker().Confirm(ctx, m.ChannelID,
			fmt.Sprintf("Keep question %d?\n> %s", q.Num, q.Text),
			m.Author.ID, responseTimeout)
		if !renderOutcome(a, m.ChannelID, keepRes.Outcome) {
			return nil
		}
		if keepRes.Value {
			kept = append(kept, q)
		}
	}
	cfg.Questions = kept

	for {
		moreRes := a.Asker().Confirm(ctx, m.ChannelID, "Add another question?", m.Author.ID, responseTimeout)
		if !renderOutcome(a, m.ChannelID, moreRes.Outcome) {
			return nil
		}
		if !moreRes.Value {
			break
		}

		textRes := a.Asker().Ask(ctx, filter, "What should the question say?", entities.ValidateText, responseTimeout)
		if !renderOutcome(a, m.ChannelID, textRes.Outcome) {
			return nil
		}
		cfg.Questions = append(cfg.Questions, entities.Question{Text: textRes.Value})
	}

	cfg.Renumber()
	if err := a.TicketConfigs().SaveTicketConfig(ctx, cfg); err != nil {
		return fmt.Errorf("saving flow: %w", err)
	}

	reply(a, m.ChannelID, fmt.Sprintf("Flow **%s** now has %d question(s).", cfg.Name, len(cfg.Questions)))
	return nil
}

// adminTicketRemove removes a flow after confirmation. Open tickets of the
// flow keep running; only the configuration and the pin reaction go.
func adminTicketRemove(ctx context.Context, a IApp, m *discordgo.MessageCreate, name string) error {
	cfg, err := a.TicketConfigs().GetTicketConfig(ctx, m.GuildID, name)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return ticketing.NewUserError(fmt.Sprintf("There is no flow named **%s**.", name))
	} else if err != nil {
		return fmt.Errorf("getting flow: %w", err)
	}

	open, err := a.Tickets().ListTicketsByConfig(ctx, cfg.ID)
	if err != nil {
		return fmt.Errorf("listing open tickets: %w", err)
	}
	if len(open) > 0 {
		reply(a, m.ChannelID, fmt.Sprintf("Heads up: %d open ticket(s) use this flow. They will keep running until closed.", len(open)))
	}

	confirmRes := a.Asker().Confirm(ctx, m.ChannelID,
		fmt.Sprintf("Remove flow **%s**? This cannot be undone.", cfg.Name),
		m.Author.ID, responseTimeout)
	if !renderOutcome(a, m.ChannelID, confirmRes.Outcome) {
		return nil
	}
	if !confirmRes.Value {
		reply(a, m.ChannelID, messages.DialogCancelled)
		return nil
	}

	// Clear the flow's trigger from the pin, best effort.
	gc, err := a.GuildConfigs().GetGuildConfig(ctx, m.GuildID)
	if err == nil && gc.PinnedMessageID != "" {
		if err := a.Session().MessageReactionsRemoveEmoji(gc.TicketChannelID, gc.PinnedMessageID, emojiToken(a, m.GuildID, cfg.EmojiID)); err != nil {
			a.Log().Warn("Error clearing pin reaction", logErr(err))
		}
	}

	if err := a.TicketConfigs().DeleteTicketConfig(ctx, cfg.ID); err != nil {
		return fmt.Errorf("removing flow: %w", err)
	}

	reply(a, m.ChannelID, fmt.Sprintf("Flow **%s** removed.", cfg.Name))
	return nil
}

// adminSummary replies with the guild configuration and its flows.
func adminSummary(ctx context.Context, a IApp, m *discordgo.MessageCreate) error {
	gc, err := a.GuildConfigs().GetGuildConfig(ctx, m.GuildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return ticketing.NewUserError(messages.ErrNotConfigured)
	} else if err != nil {
		return fmt.Errorf("getting guild config: %w", err)
	}

	flows, err := a.TicketConfigs().ListTicketConfigs(ctx, m.GuildID)
	if err != nil {
		return fmt.Errorf("listing flows: %w", err)
	}
	slices.SortFunc(flows, func(x, y *entities.TicketConfig) int {
		return strings.Compare(x.Name, y.Name)
	})

	var b strings.Builder
	b.WriteString("**Ticket configuration**\n")
	b.WriteString(fmt.Sprintf("Log channel: <#%s>\nIntake channel: <#%s>\nCategory: %s\n", gc.LogChannelID, gc.TicketChannelID, gc.CategoryChannelID))
	if len(flows) == 0 {
		b.WriteString("No flows configured.")
	}
	for _, flow := range flows {
		monitor := "off"
		if flow.MonitorActivity {
			monitor = fmt.Sprintf("%ds", flow.TimeoutSeconds)
		}
		b.WriteString(fmt.Sprintf("\n**%s** - prefix `%s`, trigger %s, %d question(s), %d role(s), inactivity %s",
			flow.Name, flow.Prefix, emojiToken(a, m.GuildID, flow.EmojiID), len(flow.Questions), len(flow.Roles), monitor))
		if flow.Practice {
			b.WriteString(", practice")
		}
	}

	reply(a, m.ChannelID, b.String())
	return nil
}

// askEmoji sends a prompt and waits for the author to react to it, returning
// the emoji used. The prompt is deleted on every exit path.
func askEmoji(ctx context.Context, a IApp, channelID, authorID, prompt string) dialog.Result[*discordgo.Emoji] {
	ctx, cancel := context.WithTimeout(ctx, responseTimeout)
	defer cancel()

	sent, err := a.Session().ChannelMessageSend(channelID, prompt)
	if err != nil {
		a.Log().Error("Error sending emoji prompt", logErr(err))
		return dialog.TimedOut[*discordgo.Emoji]()
	}
	defer func() {
		if err := a.Session().ChannelMessageDelete(channelID, sent.ID); err != nil {
			a.Log().Warn("Error deleting emoji prompt", logErr(err))
		}
	}()

	react, err := a.Stream().NextReaction(ctx, dialog.ReactionFilter{
		ChannelID: channelID,
		MessageID: sent.ID,
		UserID:    authorID,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dialog.TimedOut[*discordgo.Emoji]()
		}
		return dialog.Cancelled[*discordgo.Emoji]()
	}
	return dialog.Completed(&react.Emoji)
}

// renderOutcome reports whether a dialog completed, sending the cancelled or
// timed out notice otherwise.
func renderOutcome(a IApp, channelID string, o dialog.Outcome) bool {
	switch o {
	case dialog.OutcomeCompleted:
		return true
	case dialog.OutcomeCancelled:
		reply(a, channelID, messages.DialogCancelled)
	case dialog.OutcomeTimedOut:
		reply(a, channelID, messages.DialogTimedOut)
	}
	return false
}

// emojiToken renders a stored trigger emoji for display or the reactions API.
// Custom emoji are resolved back to name:id through the guild's emoji list.
func emojiToken(a IApp, guildID, emojiID string) string {
	emojis, err := a.Session().GuildEmojis(guildID)
	if err != nil {
		a.Log().Warn("Error listing guild emojis", logErr(err))
		return emojiID
	}
	for _, e := range emojis {
		if e.ID == emojiID {
			return e.APIName()
		}
	}
	return emojiID
}

// parseRoleMentions extracts the role IDs mentioned in a message.
func parseRoleMentions(content string) []string {
	ids := make([]string, 0, 4)
	for {
		start := strings.Index(content, "<@&")
		if start == -1 {
			return ids
		}
		content = content[start+3:]
		end := strings.Index(content, ">")
		if end == -1 {
			return ids
		}
		if id := content[:end]; id != "" {
			ids = append(ids, id)
		}
		content = content[end+1:]
	}
}
