package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"guildkeeper/internal/delivery/http/helpers"
	"guildkeeper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeSchedulerService implements domain.SchedulerService for handler tests.
type fakeSchedulerService struct {
	categoryID   string
	template     *domain.SchedulingTemplate
	getErr       error
	clearErr     error
	clearedGuild string
}

func (f *fakeSchedulerService) CreateEvent(ctx context.Context, req domain.SchedulingRequest) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeSchedulerService) SaveTemplate(ctx context.Context, guildID, categoryID string, req domain.SchedulingRequest) (*domain.SchedulingTemplate, error) {
	return nil, errors.New("not used")
}

func (f *fakeSchedulerService) ClearTemplate(ctx context.Context, guildID string) error {
	f.clearedGuild = guildID
	return f.clearErr
}

func (f *fakeSchedulerService) GetTemplate(ctx context.Context, guildID string) (string, *domain.SchedulingTemplate, error) {
	return f.categoryID, f.template, f.getErr
}

func (f *fakeSchedulerService) HandleChannelMoved(ctx context.Context, move domain.ChannelMove) (*domain.TriggerResult, error) {
	return nil, nil
}

// fakeProvisioningService implements domain.ProvisioningService; only SetWelcomeMessage is exercised.
type fakeProvisioningService struct {
	domain.ProvisioningService
	welcomeErr  error
	lastGuild   string
	lastMessage string
}

func (f *fakeProvisioningService) SetWelcomeMessage(ctx context.Context, guildID, message string) error {
	f.lastGuild, f.lastMessage = guildID, message
	return f.welcomeErr
}

func decodeResponse(t *testing.T, body io.Reader) helpers.APIResponse {
	t.Helper()
	var resp helpers.APIResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestGuildController_GetSchedulerTrigger(t *testing.T) {
	tmpl := &domain.SchedulingTemplate{EventName: "Intro {}", EarliestHour: 9, LatestHour: 17, Timezone: "UTC", Weekdays: []time.Weekday{time.Monday}}

	tests := []struct {
		name       string
		svc        *fakeSchedulerService
		wantStatus int
		wantCode   string
	}{
		{name: "found", svc: &fakeSchedulerService{categoryID: "c1", template: tmpl}, wantStatus: http.StatusOK},
		{name: "no trigger", svc: &fakeSchedulerService{}, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "service error", svc: &fakeSchedulerService{getErr: errors.New("db down")}, wantStatus: http.StatusInternalServerError, wantCode: helpers.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewGuildController(discardLogger, tt.svc, &fakeProvisioningService{})
			req := httptest.NewRequest(http.MethodGet, "/guilds/g1/scheduler-trigger", nil)
			req.SetPathValue("guildID", "g1")
			rr := httptest.NewRecorder()

			c.GetSchedulerTrigger(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				resp := decodeResponse(t, rr.Body)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				assert.NotContains(t, resp.Error.Message, "db down")
				return
			}
			var body struct {
				Data SchedulerTriggerResponse `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, "c1", body.Data.CategoryID)
			require.NotNil(t, body.Data.Template)
			assert.Equal(t, *tmpl, *body.Data.Template)
		})
	}
}

func TestGuildController_DeleteSchedulerTrigger(t *testing.T) {
	svc := &fakeSchedulerService{}
	c := NewGuildController(discardLogger, svc, &fakeProvisioningService{})
	req := httptest.NewRequest(http.MethodDelete, "/guilds/g1/scheduler-trigger", nil)
	req.SetPathValue("guildID", "g1")
	rr := httptest.NewRecorder()

	c.DeleteSchedulerTrigger(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "g1", svc.clearedGuild)

	svc.clearErr = errors.New("db down")
	rr = httptest.NewRecorder()
	c.DeleteSchedulerTrigger(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGuildController_SetWelcomeMessage(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantSubstr string
	}{
		{name: "success", body: `{"message":"Hi {}"}`, wantStatus: http.StatusNoContent},
		{name: "missing message", body: `{}`, wantStatus: http.StatusBadRequest, wantSubstr: "message is required"},
		{name: "too long", body: `{"message":"` + strings.Repeat("a", 1001) + `"}`, wantStatus: http.StatusBadRequest, wantSubstr: "at most 1000"},
		{
			name:       "rejected by service",
			body:       `{"message":"Hi"}`,
			svcErr:     domain.NewValidationError("welcome_message", "needs a placeholder"),
			wantStatus: http.StatusBadRequest,
			wantSubstr: "needs a placeholder",
		},
		{name: "service error", body: `{"message":"Hi {}"}`, svcErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prov := &fakeProvisioningService{welcomeErr: tt.svcErr}
			c := NewGuildController(discardLogger, &fakeSchedulerService{}, prov)
			req := httptest.NewRequest(http.MethodPut, "/guilds/g1/welcome-message", strings.NewReader(tt.body))
			req.SetPathValue("guildID", "g1")
			rr := httptest.NewRecorder()

			c.SetWelcomeMessage(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantSubstr != "" {
				assert.Contains(t, decodeResponse(t, rr.Body).Error.Message, tt.wantSubstr)
			}
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, "g1", prov.lastGuild)
				assert.Equal(t, "Hi {}", prov.lastMessage)
			}
		})
	}
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestHealthController(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthController(discardLogger, fakePinger{}).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"},"error":null}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewHealthController(discardLogger, fakePinger{}).Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	NewHealthController(discardLogger, fakePinger{err: errors.New("refused")}).Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, helpers.ErrCodeUnavailable, decodeResponse(t, rr.Body).Error.Code)
}
