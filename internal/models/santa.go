package models

import (
	"strings"
	"time"
)

// Participant represents a person taking part in the gift exchange.
// Group is an optional exclusion label: two participants sharing a group
// (compared case-insensitively) never draw each other.
type Participant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Group      string `json:"group,omitempty"`
	Department string `json:"department,omitempty"`
	Wishlist   string `json:"wishlist,omitempty"`
}

// SameGroup reports whether both participants carry a group and the groups match.
func (p Participant) SameGroup(other Participant) bool {
	if p.Group == "" || other.Group == "" {
		return false
	}
	return strings.ToLower(p.Group) == strings.ToLower(other.Group)
}

// Pairing links a giver to the person they buy a gift for.
type Pairing struct {
	Giver    Participant `json:"giver"`
	Receiver Participant `json:"receiver"`
}

// EventDetails describes the exchange set up by the organizer.
type EventDetails struct {
	ID             string `json:"id"`
	EventName      string `json:"eventName"`
	OrganizerName  string `json:"organizerName,omitempty"`
	OrganizerEmail string `json:"organizerEmail"`
	Budget         string `json:"budget"`
	ExchangeDate   string `json:"exchangeDate"`
	DrawDate       string `json:"drawDate"`
	Message        string `json:"message"`
}

// EventBundle is the unit persisted per event id. UpdatedAt is stamped by the
// store on every save.
type EventBundle struct {
	Details      EventDetails  `json:"details"`
	Participants []Participant `json:"participants"`
	Pairings     []Pairing     `json:"pairings"`
	UpdatedAt    time.Time     `json:"updatedAt,omitzero"`
}

// TicketData is the short-keyed payload a participant submits through the join form.
type TicketData struct {
	Name       string `json:"n"`
	Email      string `json:"e"`
	Group      string `json:"g,omitempty"`
	Department string `json:"d,omitempty"`
	Wishlist   string `json:"w,omitempty"`
}

// Participant converts the ticket into a participant with the given id.
func (t TicketData) Participant(id string) Participant {
	return Participant{
		ID:         id,
		Name:       t.Name,
		Email:      t.Email,
		Group:      t.Group,
		Department: t.Department,
		Wishlist:   t.Wishlist,
	}
}
