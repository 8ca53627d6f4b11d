package dto

import (
	"github.com/wb-go/wbf/ginext"

	"eventease/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound      = "EVENT_NOT_FOUND"
	NotAuthenticated   = "NOT_AUTHENTICATED"
	InvalidCredentials = "INVALID_CREDENTIALS"
	EmailTaken         = "EMAIL_TAKEN"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LocationPayload struct {
	Name      string   `json:"name" validate:"required,max=255"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

type CreateEventRequest struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Description string           `json:"description" validate:"required"`
	Date        string           `json:"date" validate:"required,eventdate"`
	Time        string           `json:"time" validate:"required,eventtime"`
	Location    *LocationPayload `json:"location,omitempty"`
}

type UpdateEventRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=1"`
	Date        *string          `json:"date,omitempty" validate:"omitempty,eventdate"`
	Time        *string          `json:"time,omitempty" validate:"omitempty,eventtime"`
	Location    *LocationPayload `json:"location,omitempty"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type SessionResponse struct {
	State string        `json:"state"`
	User  *UserResponse `json:"user,omitempty"`
}

type EventResponse struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	Location        *model.Location `json:"location,omitempty"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       string          `json:"createdAt"`
	Participants    []string        `json:"participants"`
	IsParticipating bool            `json:"isParticipating"`
}

// WeatherResponse marks provider unavailability explicitly instead of
// fabricating conditions: Available=false means no report could be fetched.
type WeatherResponse struct {
	Available bool                 `json:"available"`
	Report    *model.WeatherReport `json:"report,omitempty"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func NewUserResponse(u *model.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func NewEventResponse(e model.Event) EventResponse {
	return EventResponse{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Date:            e.Date,
		Time:            e.Time,
		Location:        e.Location,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
		Participants:    e.Participants,
		IsParticipating: e.IsParticipating,
	}
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func EventNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: EventNotFound,
			Desc: "Event not found",
		},
	})
}

func NotAuthenticatedError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: NotAuthenticated,
			Desc: "No user is logged in",
		},
	})
}

func InvalidCredentialsError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: InvalidCredentials,
			Desc: "Email or password is incorrect",
		},
	})
}

func EmailTakenError(c *ginext.Context) {
	c.JSON(409, Response{
		Status: "error",
		Error: &Error{
			Code: EmailTaken,
			Desc: "This email is already registered",
		},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
