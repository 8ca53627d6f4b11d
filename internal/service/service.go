package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventease/internal/auth"
	"eventease/internal/dto"
	"eventease/internal/events"
	"eventease/internal/geocode"
	"eventease/internal/ics"
	"eventease/internal/model"
	"eventease/internal/weather"
	"eventease/pkg/validator"
)

type Service interface {
	Register(ctx *ginext.Context)
	Login(ctx *ginext.Context)
	Logout(ctx *ginext.Context)
	Me(ctx *ginext.Context)
	ListEvents(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	ToggleParticipation(ctx *ginext.Context)
	SearchAddresses(ctx *ginext.Context)
	ReverseGeocode(ctx *ginext.Context)
	Weather(ctx *ginext.Context)
	CalendarFeed(ctx *ginext.Context)
}

type service struct {
	auth    *auth.Manager
	events  *events.Manager
	weather *weather.Service
	geocode *geocode.Service
	log     *zerolog.Logger
}

func NewService(a *auth.Manager, e *events.Manager, w *weather.Service, g *geocode.Service, logger *zerolog.Logger) Service {
	return &service{
		auth:    a,
		events:  e,
		weather: w,
		geocode: g,
		log:     logger,
	}
}

func (s *service) Register(ctx *ginext.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse register request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.auth.Register(ctx.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			dto.EmailTakenError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to register user")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessCreatedResponse(ctx, dto.NewUserResponse(user))
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.auth.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			dto.InvalidCredentialsError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to log in user")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.NewUserResponse(user))
}

func (s *service) Logout(ctx *ginext.Context) {
	if err := s.auth.Logout(ctx.Request.Context()); err != nil {
		s.log.Error().Err(err).Msg("failed to log out user")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, nil)
}

func (s *service) Me(ctx *ginext.Context) {
	dto.SuccessResponse(ctx, dto.SessionResponse{
		State: s.auth.State().String(),
		User:  dto.NewUserResponse(s.auth.Current()),
	})
}

func (s *service) ListEvents(ctx *ginext.Context) {
	list := s.events.List()
	resp := make([]dto.EventResponse, 0, len(list))
	for _, e := range list {
		resp = append(resp, dto.NewEventResponse(e))
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	draft := events.Draft{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    locationFromPayload(req.Location),
	}

	event, err := s.events.Create(ctx.Request.Context(), draft)
	if err != nil {
		if errors.Is(err, events.ErrNotAuthenticated) {
			dto.NotAuthenticatedError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to create event")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessCreatedResponse(ctx, dto.NewEventResponse(*event))
}

func (s *service) GetEvent(ctx *ginext.Context) {
	event, err := s.events.Get(ctx.Param("id"))
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}
	dto.SuccessResponse(ctx, dto.NewEventResponse(*event))
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	patch := events.Patch{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    locationFromPayload(req.Location),
	}

	event, err := s.events.Update(ctx.Request.Context(), ctx.Param("id"), patch)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.NewEventResponse(*event))
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	if err := s.events.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to delete event")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, nil)
}

func (s *service) ToggleParticipation(ctx *ginext.Context) {
	event, err := s.events.ToggleParticipation(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNotAuthenticated):
			dto.NotAuthenticatedError(ctx)
		case errors.Is(err, events.ErrEventNotFound):
			dto.EventNotFoundError(ctx)
		default:
			s.log.Error().Err(err).Msg("failed to toggle participation")
			dto.InternalServerError(ctx)
		}
		return
	}
	dto.SuccessResponse(ctx, dto.NewEventResponse(*event))
}

func (s *service) SearchAddresses(ctx *ginext.Context) {
	results := s.geocode.SearchAddresses(ctx.Request.Context(), ctx.Query("q"))
	dto.SuccessResponse(ctx, results)
}

func (s *service) ReverseGeocode(ctx *ginext.Context) {
	lat, latErr := strconv.ParseFloat(ctx.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(ctx.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "lat and lon must be decimal coordinates")
		return
	}
	dto.SuccessResponse(ctx, s.geocode.Reverse(ctx.Request.Context(), lat, lon))
}

func (s *service) Weather(ctx *ginext.Context) {
	var report *model.WeatherReport

	if city := ctx.Query("city"); city != "" {
		report = s.weather.ByCity(ctx.Request.Context(), city)
	} else {
		lat, latErr := strconv.ParseFloat(ctx.Query("lat"), 64)
		lon, lonErr := strconv.ParseFloat(ctx.Query("lon"), 64)
		if latErr != nil || lonErr != nil {
			dto.BadResponseError(ctx, dto.FieldIncorrect, "provide city or lat/lon coordinates")
			return
		}
		report = s.weather.ByCoordinates(ctx.Request.Context(), lat, lon)
	}

	dto.SuccessResponse(ctx, dto.WeatherResponse{
		Available: report != nil,
		Report:    report,
	})
}

func (s *service) CalendarFeed(ctx *ginext.Context) {
	feed := ics.BuildFeed(s.events.List(), s.log)
	ctx.Data(200, "text/calendar; charset=utf-8", []byte(feed))
}

func locationFromPayload(p *dto.LocationPayload) *model.Location {
	if p == nil {
		return nil
	}
	return &model.Location{
		Name:      p.Name,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	}
}
