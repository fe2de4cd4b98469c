package ws

import (
	"github.com/go-playground/validator/v10"

	"github.com/Andy260/project-deception/internal/roomcode"
)

// Inbound payloads. Validation mirrors what the join/create forms
// enforce client-side: names 2-32 characters, room codes structurally
// valid, so the core only ever sees malformed input from a hostile or
// broken client.
type createRoomPayload struct {
	Type string `json:"type"`
	Name string `json:"name" validate:"required,min=2,max=32"`
}

type joinRoomPayload struct {
	Type string `json:"type"`
	Room string `json:"room" validate:"required,roomcode"`
	Name string `json:"name" validate:"required,min=2,max=32"`
}

type chatPayload struct {
	Type    string `json:"type"`
	Message string `json:"message" validate:"required,max=500"`
}

// Outbound envelopes.
type envelope struct {
	Type string `json:"type"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type roomCreatedResponse struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type playerDTO struct {
	Name string `json:"name"`
}

type roomStateResponse struct {
	Type    string      `json:"type"`
	Room    string      `json:"room"`
	Players []playerDTO `json:"players"`
	Count   int         `json:"count"`
}

type playerEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type chatEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	From    string `json:"from"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Structural check only; existence is the coordinator's call.
	_ = v.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
		return roomcode.IsValid(fl.Field().String())
	})
	return v
}
