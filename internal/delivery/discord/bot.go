// Package discord connects the services to Discord: slash commands, the
// availability wizard, and gateway events.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"guildkeeper/internal/dates"
	"guildkeeper/internal/domain"
	"guildkeeper/internal/timezones"
)

const intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

type Options struct {
	DefaultTimezone string
	WizardTimeout   time.Duration
	// DebugGuilds registers commands per guild instead of globally.
	DebugGuilds []string
}

type Bot struct {
	session      *discordgo.Session
	scheduler    domain.SchedulerService
	provisioning domain.ProvisioningService
	window       *dates.RollingWindow
	zones        *timezones.Index
	opts         Options
	logger       *slog.Logger

	sessions *sessionStore

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu sync.Mutex
	// known holds guilds the bot is already in, so GuildCreate can tell joins from reconnects.
	known map[string]bool
	// admin caches whether the bot had administrator per guild at the last check.
	admin map[string]bool
}

// NewSession creates a discordgo session with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = intents
	s.StateEnabled = true
	return s, nil
}

func New(
	session *discordgo.Session,
	scheduler domain.SchedulerService,
	provisioning domain.ProvisioningService,
	window *dates.RollingWindow,
	zones *timezones.Index,
	opts Options,
	logger *slog.Logger,
) *Bot {
	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = "UTC"
	}
	return &Bot{
		session:      session,
		scheduler:    scheduler,
		provisioning: provisioning,
		window:       window,
		zones:        zones,
		opts:         opts,
		logger:       logger,
		sessions:     newSessionStore(),
		known:        make(map[string]bool),
		admin:        make(map[string]bool),
	}
}

// Start registers handlers and opens the gateway connection. Handlers use ctx
// as their parent context until Close.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onGuildDelete)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberUpdate)
	b.session.AddHandler(b.onGuildRoleUpdate)
	b.session.AddHandler(b.onChannelUpdate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Close stops open wizards and disconnects.
func (b *Bot) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return b.session.Close()
}

func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	guilds := b.opts.DebugGuilds
	if len(guilds) == 0 {
		guilds = []string{""}
	}
	for _, guildID := range guilds {
		if _, err := b.session.ApplicationCommandBulkOverwrite(appID, guildID, commands()); err != nil {
			return fmt.Errorf("register commands (guild %q): %w", guildID, err)
		}
	}
	b.logger.Info("slash commands registered", "guilds", len(b.opts.DebugGuilds))
	return nil
}

// guard runs fn and logs any panic instead of letting it reach discordgo.
func (b *Bot) guard(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked", "event", event, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// goTracked runs fn on a tracked goroutine so Close can wait for it.
func (b *Bot) goTracked(event string, fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.guard(event, fn)
	}()
}
