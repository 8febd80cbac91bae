package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"guildkeeper/internal/domain"
)

var testNow = time.Date(2026, 10, 21, 15, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGuildRepo is an in-memory GuildRepository for tests.
type fakeGuildRepo struct {
	mu        sync.Mutex
	guilds    map[string]*domain.Guild
	updateErr error
	updates   int
}

func newFakeGuildRepo(guilds ...*domain.Guild) *fakeGuildRepo {
	f := &fakeGuildRepo{guilds: make(map[string]*domain.Guild)}
	for _, g := range guilds {
		f.guilds[g.ID] = g
	}
	return f
}

func (f *fakeGuildRepo) Get(ctx context.Context, id string) (*domain.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guilds[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (f *fakeGuildRepo) GetOrCreate(ctx context.Context, id string) (*domain.Guild, error) {
	f.mu.Lock()
	if _, ok := f.guilds[id]; !ok {
		f.guilds[id] = domain.NewGuild(id, testNow)
	}
	f.mu.Unlock()
	return f.Get(ctx, id)
}

func (f *fakeGuildRepo) Update(ctx context.Context, id string, fn func(g *domain.Guild) error) (*domain.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	g, ok := f.guilds[id]
	if !ok {
		g = domain.NewGuild(id, testNow)
	}
	c := *g
	if err := fn(&c); err != nil {
		return nil, err
	}
	f.guilds[id] = &c
	f.updates++
	out := c
	return &out, nil
}

func (f *fakeGuildRepo) guild(id string) *domain.Guild {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.guilds[id]
}

// fakePlatform records every platform call.
type fakePlatform struct {
	admin         bool
	categories    map[string]bool
	manageable    map[string]bool
	privateByUser map[string]string
	ownerMessages []string
	sent          map[string][]string
	renamed       map[string]string
	created       []string
	left          bool
	notifyErr     error
	// categoryDeadline records whether CategoryExists was called with a deadline.
	categoryDeadline bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		admin:         true,
		categories:    map[string]bool{},
		manageable:    map[string]bool{},
		privateByUser: map[string]string{},
		sent:          map[string][]string{},
		renamed:       map[string]string{},
	}
}

func (p *fakePlatform) IsAdmin(ctx context.Context, guildID string) (bool, error) { return p.admin, nil }

func (p *fakePlatform) LeaveGuild(ctx context.Context, guildID string) error {
	p.left = true
	return nil
}

func (p *fakePlatform) NotifyOwner(ctx context.Context, guildID, content string) error {
	if p.notifyErr != nil {
		return p.notifyErr
	}
	p.ownerMessages = append(p.ownerMessages, content)
	return nil
}

func (p *fakePlatform) InviteURL() string { return "https://invite.example/bot" }

func (p *fakePlatform) CategoryExists(ctx context.Context, guildID, categoryID string) (bool, error) {
	_, p.categoryDeadline = ctx.Deadline()
	return p.categories[categoryID], nil
}

func (p *fakePlatform) CanManageChannels(ctx context.Context, guildID, categoryID string) (bool, error) {
	return p.manageable[categoryID], nil
}

func (p *fakePlatform) CreatePrivateChannel(ctx context.Context, guildID, categoryID, memberID, name string) (string, error) {
	id := "ch-" + memberID
	p.created = append(p.created, name)
	p.privateByUser[memberID] = id
	return id, nil
}

func (p *fakePlatform) FindPrivateChannel(ctx context.Context, guildID, categoryID, memberID string) (string, error) {
	id, ok := p.privateByUser[memberID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

func (p *fakePlatform) RenameChannel(ctx context.Context, channelID, name string) error {
	p.renamed[channelID] = name
	return nil
}

func (p *fakePlatform) SendMessage(ctx context.Context, channelID, content string) error {
	p.sent[channelID] = append(p.sent[channelID], content)
	return nil
}

type fakeSchedulerClient struct {
	url  string
	err  error
	reqs []domain.SchedulingRequest
}

func (c *fakeSchedulerClient) CreateEvent(ctx context.Context, req domain.SchedulingRequest) (string, error) {
	c.reqs = append(c.reqs, req)
	if c.err != nil {
		return "", c.err
	}
	return c.url, nil
}

type fakeAlerts struct {
	sent []*domain.UpstreamAlertData
}

func (a *fakeAlerts) SendUpstreamFormatChanged(ctx context.Context, data *domain.UpstreamAlertData) error {
	a.sent = append(a.sent, data)
	return nil
}

type fakeMailer struct {
	to, subject string
	err         error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	m.to, m.subject = to, subject
	return m.err
}

type fakeRenderer struct {
	name string
}

func (r *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	r.name = name
	return "subject", "<p>html</p>", "text", nil
}

func strPtr(s string) *string { return &s }
