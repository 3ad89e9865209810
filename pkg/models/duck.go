package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxFieldLength is the maximum number of characters stored in any duck or fact text field.
const MaxFieldLength = 200

type Duck struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Facts       []*DuckFact `json:"facts,omitempty"`
}

func (d *Duck) String() string {
	return "(" + strconv.FormatInt(d.ID, 10) + ") - " + d.Name + " - " + d.Description
}

type DuckFact struct {
	ID     int64  `json:"id"`
	DuckID int64  `json:"duck_id"`
	Fact   string `json:"fact"`
	Rating int    `json:"rating"`
}

func (f *DuckFact) String() string {
	return "(" + strconv.Itoa(f.Rating) + ") : " + f.Fact
}

type CreateDuckRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=200"`
}

// Normalize trims surrounding whitespace so that blank input counts as missing.
func (r *CreateDuckRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

type CreateFactRequest struct {
	Fact string `json:"fact" validate:"required,max=200"`
}

func (r *CreateFactRequest) Normalize() {
	r.Fact = strings.TrimSpace(r.Fact)
}

// Direction is the direction of a vote on a fact.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Delta is the rating change a vote in this direction applies.
func (d Direction) Delta() int {
	switch d {
	case DirectionUp:
		return 1
	case DirectionDown:
		return -1
	default:
		return 0
	}
}

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionUp, DirectionDown:
		return d, nil
	default:
		return "", NewBadRequestError(fmt.Sprintf("invalid vote direction %q", s))
	}
}
