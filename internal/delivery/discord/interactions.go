package discord

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"guildkeeper/internal/domain"
	"guildkeeper/internal/services"
	"guildkeeper/internal/wizard"
)

const (
	msgGuildOnly     = "This command only works in a server."
	msgAdminOnly     = "You need the administrator permission to use this command."
	msgWizardGone    = "This menu is no longer active."
	msgNotYourWizard = "This menu belongs to someone else."
	msgExpired       = "*This menu expired.*"
)

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.guard("interaction_create", func() {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			b.handleCommand(i.Interaction)
		case discordgo.InteractionApplicationCommandAutocomplete:
			b.handleAutocomplete(i.Interaction)
		case discordgo.InteractionMessageComponent:
			b.handleComponent(i.Interaction)
		}
	})
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (b *Bot) handleCommand(i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)
	log := b.logger.With("command", data.Name+" "+sub.Name, "guild_id", i.GuildID, "user_id", interactionUserID(i))
	log.Debug("command received")

	if i.Member == nil {
		b.reply(i, msgGuildOnly)
		return
	}
	if data.Name != cmdCreate && i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		b.reply(i, msgAdminOnly)
		return
	}

	switch data.Name + " " + sub.Name {
	case cmdCreate + " " + subScheduler:
		b.startWizard(i, flowCreate, stringOption(opts, optEventName), stringOption(opts, optTimezone), "")
	case cmdSet + " " + subSchedulerTrigger:
		b.startWizard(i, flowTrigger, stringOption(opts, optEventName), stringOption(opts, optTimezone), stringOption(opts, optCategory))
	case cmdSet + " " + subCategory:
		categoryID := stringOption(opts, optChannel)
		b.deferred(i, func(ctx context.Context) (string, []*discordgo.MessageEmbed, error) {
			msg, err := b.provisioning.SetCategory(ctx, i.GuildID, categoryID)
			return msg, nil, err
		})
	case cmdGet + " " + subCategory:
		b.deferred(i, func(ctx context.Context) (string, []*discordgo.MessageEmbed, error) {
			msg, err := b.provisioning.GetCategory(ctx, i.GuildID)
			return msg, nil, err
		})
	case cmdSet + " " + subWelcomeMessage:
		message := stringOption(opts, optMessage)
		b.deferred(i, func(ctx context.Context) (string, []*discordgo.MessageEmbed, error) {
			if err := b.provisioning.SetWelcomeMessage(ctx, i.GuildID, message); err != nil {
				return "", nil, err
			}
			return "The welcome message has been updated.", nil, nil
		})
	case cmdSet + " " + subWelcomeChannel:
		channelID := stringOption(opts, optChannel)
		b.deferred(i, func(ctx context.Context) (string, []*discordgo.MessageEmbed, error) {
			msg, err := b.provisioning.SetWelcomeChannel(ctx, i.GuildID, channelID)
			return msg, nil, err
		})
	case cmdSet + " " + subSchedulerOff:
		b.deferred(i, func(ctx context.Context) (string, []*discordgo.MessageEmbed, error) {
			if err := b.scheduler.ClearTemplate(ctx, i.GuildID); err != nil {
				return "", nil, err
			}
			return "Scheduling events will no longer be created for moved channels.", nil, nil
		})
	case cmdGet + " " + subSchedulerTrigger:
		b.deferred(i, func(ctx context.Context) (string, []*discordgo.MessageEmbed, error) {
			categoryID, tmpl, err := b.scheduler.GetTemplate(ctx, i.GuildID)
			if err != nil {
				return "", nil, err
			}
			if tmpl == nil {
				return "There is no scheduler trigger set, set one using the `/set scheduler-trigger` command.", nil, nil
			}
			return "", []*discordgo.MessageEmbed{templateEmbed(categoryID, tmpl)}, nil
		})
	default:
		log.Warn("unknown command")
	}
}

// reply answers an interaction with an ephemeral message.
func (b *Bot) reply(i *discordgo.Interaction, content string) {
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Warn("failed to reply to interaction", "interaction_id", i.ID, "err", err)
	}
}

// deferred acknowledges the interaction right away, runs fn, and edits the reply with its result.
func (b *Bot) deferred(i *discordgo.Interaction, fn func(ctx context.Context) (string, []*discordgo.MessageEmbed, error)) {
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Warn("failed to acknowledge interaction", "interaction_id", i.ID, "err", err)
		return
	}
	content, embeds, err := fn(b.ctx)
	if err != nil {
		b.logger.Error("command failed", "interaction_id", i.ID, "guild_id", i.GuildID, "err", err)
		content, embeds = services.UserMessage(err), nil
	}
	edit := &discordgo.WebhookEdit{Content: &content}
	if len(embeds) > 0 {
		edit.Embeds = &embeds
	}
	if _, err := b.session.InteractionResponseEdit(i, edit); err != nil {
		b.logger.Warn("failed to edit interaction reply", "interaction_id", i.ID, "err", err)
	}
}

func (b *Bot) startWizard(i *discordgo.Interaction, kind flowKind, eventName, tzInput, categoryID string) {
	eventName = strings.TrimSpace(eventName)
	if eventName == "" {
		b.reply(i, "An event name is required.")
		return
	}
	if kind == flowTrigger {
		if err := domain.ValidateTemplate(eventName); err != nil {
			b.reply(i, services.UserMessage(err))
			return
		}
	}
	if tzInput == "" {
		tzInput = b.opts.DefaultTimezone
	}
	tz, err := b.zones.Resolve(tzInput)
	if err != nil {
		b.reply(i, services.UserMessage(err))
		return
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		b.reply(i, services.UserMessage(domain.NewValidationError("timezone", "'%s' is not a valid timezone.", tz)))
		return
	}

	ws := &wizardSession{
		id:          uuid.NewString(),
		kind:        kind,
		interaction: i,
		userID:      interactionUserID(i),
		guildID:     i.GuildID,
		eventName:   eventName,
		timezone:    tz,
		categoryID:  categoryID,
	}
	_, perRow := b.window.Shape()
	ws.wizard = wizard.New(wizard.Options{
		Dates:      b.window.Dates(loc),
		DaysPerRow: perRow,
		Timeout:    b.opts.WizardTimeout,
		Logger:     b.logger.With("wizard", ws.id, "guild_id", ws.guildID),
		OnExpire:   func(v wizard.View) { b.expire(ws, v) },
	})
	b.sessions.add(ws)

	view := ws.wizard.Initial()
	err = b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    view.Content,
			Components: renderComponents(ws.id, view),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.sessions.remove(ws.id)
		b.logger.Error("failed to open wizard", "guild_id", i.GuildID, "err", err)
		return
	}
	b.goTracked("wizard_run", func() { ws.wizard.Run(b.ctx) })
	b.goTracked("wizard_wait", func() { b.awaitWizard(ws) })
}

func (b *Bot) expire(ws *wizardSession, v wizard.View) {
	content := v.Content + "\n" + msgExpired
	components := renderComponents(ws.id, v)
	_, err := b.session.InteractionResponseEdit(ws.interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	})
	if err != nil {
		b.logger.Warn("failed to disable expired wizard", "wizard", ws.id, "err", err)
	}
}

func (b *Bot) awaitWizard(ws *wizardSession) {
	outcome, sel := ws.wizard.Wait(b.ctx)
	b.sessions.remove(ws.id)
	log := b.logger.With("wizard", ws.id, "guild_id", ws.guildID, "user_id", ws.userID)
	if outcome != wizard.OutcomeConfirmed {
		log.Info("wizard ended without confirmation", "outcome", outcome.String())
		return
	}

	req, err := sel.Request(ws.eventName, ws.timezone)
	if err != nil {
		b.followup(ws.interaction, &discordgo.WebhookParams{Content: services.UserMessage(err), Flags: discordgo.MessageFlagsEphemeral})
		return
	}

	switch ws.kind {
	case flowCreate:
		url, err := b.scheduler.CreateEvent(b.ctx, *req)
		if err != nil {
			log.Debug("scheduler event not created", "err", err)
			b.followup(ws.interaction, &discordgo.WebhookParams{Content: services.UserMessage(err), Flags: discordgo.MessageFlagsEphemeral})
			return
		}
		log.Info("scheduler event created", "url", url)
		b.followup(ws.interaction, &discordgo.WebhookParams{
			Embeds:     []*discordgo.MessageEmbed{requestEmbed(*req)},
			Components: linkButton(url),
		})
	case flowTrigger:
		tmpl, err := b.scheduler.SaveTemplate(b.ctx, ws.guildID, ws.categoryID, *req)
		if err != nil {
			log.Error("failed to save scheduler trigger", "err", err)
			b.followup(ws.interaction, &discordgo.WebhookParams{Content: services.UserMessage(err), Flags: discordgo.MessageFlagsEphemeral})
			return
		}
		b.followup(ws.interaction, &discordgo.WebhookParams{
			Content: "The scheduler trigger has been saved.",
			Embeds:  []*discordgo.MessageEmbed{templateEmbed(ws.categoryID, tmpl)},
			Flags:   discordgo.MessageFlagsEphemeral,
		})
	}
}

func (b *Bot) followup(i *discordgo.Interaction, params *discordgo.WebhookParams) {
	if _, err := b.session.FollowupMessageCreate(i, true, params); err != nil {
		b.logger.Warn("failed to send follow-up", "interaction_id", i.ID, "err", err)
	}
}

func (b *Bot) handleComponent(i *discordgo.Interaction) {
	data := i.MessageComponentData()
	cid, err := parseComponentID(data.CustomID)
	if err != nil {
		b.logger.Debug("ignoring component", "custom_id", data.CustomID)
		b.acknowledge(i)
		return
	}
	ws, ok := b.sessions.get(cid.Session)
	if !ok {
		b.reply(i, msgWizardGone)
		return
	}
	if interactionUserID(i) != ws.userID {
		b.reply(i, msgNotYourWizard)
		return
	}
	ev, err := wizard.ParseEvent(cid.Action, cid.Arg, data.Values)
	if err != nil {
		b.logger.Warn("bad wizard component", "wizard", ws.id, "custom_id", data.CustomID, "err", err)
		b.reply(i, services.UserMessage(err))
		return
	}
	err = ws.wizard.Dispatch(ev, &interactionResponder{bot: b, interaction: i, session: ws.id})
	if errors.Is(err, wizard.ErrInactive) {
		b.acknowledge(i)
	}
}

// acknowledge accepts a component interaction without changing the message.
func (b *Bot) acknowledge(i *discordgo.Interaction) {
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})
	if err != nil {
		b.logger.Warn("failed to acknowledge component", "interaction_id", i.ID, "err", err)
	}
}

// interactionResponder answers one component interaction for the wizard.
type interactionResponder struct {
	bot         *Bot
	interaction *discordgo.Interaction
	session     string
}

func (r *interactionResponder) Update(v wizard.View) error {
	return r.bot.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    v.Content,
			Components: renderComponents(r.session, v),
		},
	})
}

func (r *interactionResponder) Fail(message string) error {
	return r.bot.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: message, Flags: discordgo.MessageFlagsEphemeral},
	})
}

func (b *Bot) handleAutocomplete(i *discordgo.Interaction) {
	focused := focusedOption(i.ApplicationCommandData().Options)
	choices := []*discordgo.ApplicationCommandOptionChoice{}
	if focused != nil && focused.Name == optTimezone {
		prefix, _ := focused.Value.(string)
		choices = timezoneChoices(b.zones.Autocomplete(prefix))
	}
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.logger.Debug("failed to answer autocomplete", "err", err)
	}
}

func focusedOption(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range opts {
		if o.Focused {
			return o
		}
		if f := focusedOption(o.Options); f != nil {
			return f
		}
	}
	return nil
}
