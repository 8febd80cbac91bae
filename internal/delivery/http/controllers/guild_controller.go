package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"guildkeeper/internal/delivery/http/helpers"
	"guildkeeper/internal/delivery/http/middleware"
	"guildkeeper/internal/domain"
)

const maxWelcomeMessageLength = 1000

// SchedulerTriggerResponse is the stored scheduler trigger of a guild.
type SchedulerTriggerResponse struct {
	CategoryID string                     `json:"category_id"`
	Template   *domain.SchedulingTemplate `json:"template"`
}

// SetWelcomeMessageRequest is the request body for PUT /guilds/{guildID}/welcome-message.
type SetWelcomeMessageRequest struct {
	Message string `json:"message"`
}

// Validate implements helpers.Validator.
func (r SetWelcomeMessageRequest) Validate() []string {
	var errs []string
	if r.Message == "" {
		errs = append(errs, "message is required")
	}
	if utf8.RuneCountInString(r.Message) > maxWelcomeMessageLength {
		errs = append(errs, "message must be at most 1000 characters")
	}
	return errs
}

type GuildController struct {
	Logger       *slog.Logger
	Scheduler    domain.SchedulerService
	Provisioning domain.ProvisioningService
}

func NewGuildController(logger *slog.Logger, scheduler domain.SchedulerService, provisioning domain.ProvisioningService) *GuildController {
	return &GuildController{
		Logger:       logger,
		Scheduler:    scheduler,
		Provisioning: provisioning,
	}
}

// GetSchedulerTrigger godoc
// @Summary Get the scheduler trigger of a guild
// @Tags guilds
// @Produce json
// @Security BearerAuth
// @Param guildID path string true "Guild ID"
// @Success 200 {object} helpers.APIResponse "data contains category_id and template"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /guilds/{guildID}/scheduler-trigger [get]
func (c *GuildController) GetSchedulerTrigger(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildID")
	categoryID, tmpl, err := c.Scheduler.GetTemplate(r.Context(), guildID)
	if err != nil {
		c.internalError(w, r, err)
		return
	}
	if tmpl == nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no scheduler trigger set")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SchedulerTriggerResponse{CategoryID: categoryID, Template: tmpl})
}

// DeleteSchedulerTrigger godoc
// @Summary Turn off the scheduler trigger of a guild
// @Tags guilds
// @Security BearerAuth
// @Param guildID path string true "Guild ID"
// @Success 204 "trigger cleared"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /guilds/{guildID}/scheduler-trigger [delete]
func (c *GuildController) DeleteSchedulerTrigger(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildID")
	if err := c.Scheduler.ClearTemplate(r.Context(), guildID); err != nil {
		c.internalError(w, r, err)
		return
	}
	subject, _ := middleware.SubjectFromContext(r.Context())
	c.Logger.InfoContext(r.Context(), "scheduler trigger cleared", "guild_id", guildID, "subject", subject)
	w.WriteHeader(http.StatusNoContent)
}

// SetWelcomeMessage godoc
// @Summary Set the welcome message of a guild
// @Description The message must contain {} exactly once; it is replaced with the new member's mention.
// @Tags guilds
// @Accept json
// @Security BearerAuth
// @Param guildID path string true "Guild ID"
// @Param body body controllers.SetWelcomeMessageRequest true "Welcome message"
// @Success 204 "message stored"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /guilds/{guildID}/welcome-message [put]
func (c *GuildController) SetWelcomeMessage(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildID")
	var req SetWelcomeMessageRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	err := c.Provisioning.SetWelcomeMessage(r.Context(), guildID, req.Message)
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, ve.Message)
		return
	}
	if err != nil {
		c.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *GuildController) internalError(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
}
