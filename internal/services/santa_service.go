package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"santa/internal/models"
	"santa/internal/notify"
	"santa/internal/storage"
	"santa/internal/ticket"
)

var (
	ErrInvalidEvent        = errors.New("invalid event")
	ErrEventExists         = errors.New("event already exists")
	ErrInvalidParticipant  = errors.New("invalid participant")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNoDraw              = errors.New("no draw has been made yet")
	ErrStaleDraw           = errors.New("participants changed since the last draw")
)

// EventStore persists event bundles. storage.TieredStore implements it.
type EventStore interface {
	Save(ctx context.Context, bundle *models.EventBundle) (storage.Mode, error)
	Get(ctx context.Context, id string) (*models.EventBundle, error)
	Kind() string
}

// EventSession is the cached state of one event.
type EventSession struct {
	mu           sync.Mutex // serializes edits of Bundle
	Bundle       *models.EventBundle
	LastActivity time.Time
}

// Revelation is what a single giver is allowed to see.
type Revelation struct {
	Pairing models.Pairing `json:"pairing"`
	Message notify.Message `json:"message"`
}

// SantaService manages events on top of an EventStore. The store stays
// authoritative: every read and edit reloads the event from it, and the
// in-memory sessions only serialize edits and keep a fallback copy.
type SantaService struct {
	mu       sync.RWMutex
	sessions map[string]*EventSession // Key: sanitized event id

	store   EventStore
	engine  *PairingEngine
	sender  notify.Sender
	idleTTL time.Duration
	newID   func() string
	now     func() time.Time
}

// NewSantaService creates and initializes a new SantaService.
func NewSantaService(store EventStore, engine *PairingEngine, sender notify.Sender, idleTTL time.Duration) *SantaService {
	if engine == nil {
		engine = NewPairingEngine()
	}
	if sender == nil {
		sender = notify.NoopSender{}
	}
	return &SantaService{
		sessions: make(map[string]*EventSession),
		store:    store,
		engine:   engine,
		sender:   sender,
		idleTTL:  idleTTL,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// StorageKind names the storage tier in use.
func (s *SantaService) StorageKind() string {
	return s.store.Kind()
}

// session returns the cache entry for id, creating an empty one on a miss.
// The entry's mutex serializes this instance's edits of the event.
func (s *SantaService) session(id string) (string, *EventSession, error) {
	safe, err := storage.SanitizeID(id)
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[safe]
	if !exists {
		session = &EventSession{}
		s.sessions[safe] = session
	}
	session.LastActivity = s.now()
	return safe, session, nil
}

// forget drops session from the cache if it is still the entry for id.
func (s *SantaService) forget(id string, session *EventSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] == session {
		delete(s.sessions, id)
	}
}

// load refreshes session.Bundle from the store, which other instances may
// have written to since. The caller holds session.mu.
func (s *SantaService) load(ctx context.Context, id string, session *EventSession) error {
	bundle, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			session.Bundle = nil
		}
		if session.Bundle == nil {
			s.forget(id, session)
		}
		return err
	}
	session.Bundle = bundle
	return nil
}

func cloneBundle(b *models.EventBundle) *models.EventBundle {
	out := &models.EventBundle{Details: b.Details, UpdatedAt: b.UpdatedAt}
	out.Participants = append(make([]models.Participant, 0, len(b.Participants)), b.Participants...)
	out.Pairings = append(make([]models.Pairing, 0, len(b.Pairings)), b.Pairings...)
	return out
}

// view returns a copy of the event's current bundle. If the store cannot be
// reached the last copy this instance saw is served instead.
func (s *SantaService) view(ctx context.Context, id string) (*models.EventBundle, error) {
	safe, session, err := s.session(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := s.load(ctx, safe, session); err != nil {
		if session.Bundle == nil || errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		logger.Warningf("Serving cached copy of event %s: %v", safe, err)
	}
	return cloneBundle(session.Bundle), nil
}

// update applies fn to a fresh copy of the stored bundle and commits it only
// once the store accepted the result.
func (s *SantaService) update(ctx context.Context, id string, fn func(b *models.EventBundle) error) (*models.EventBundle, storage.Mode, error) {
	safe, session, err := s.session(id)
	if err != nil {
		return nil, "", err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := s.load(ctx, safe, session); err != nil {
		return nil, "", err
	}
	next := cloneBundle(session.Bundle)
	if err := fn(next); err != nil {
		return nil, "", err
	}
	mode, err := s.store.Save(ctx, next)
	if err != nil {
		return nil, "", err
	}
	session.Bundle = next
	return cloneBundle(next), mode, nil
}

func validateDetails(d models.EventDetails) error {
	if strings.TrimSpace(d.EventName) == "" {
		return fmt.Errorf("%w: event name is required", ErrInvalidEvent)
	}
	if strings.TrimSpace(d.OrganizerEmail) == "" {
		return fmt.Errorf("%w: organizer email is required", ErrInvalidEvent)
	}
	return nil
}

// CreateEvent registers a new event with no participants and saves it.
func (s *SantaService) CreateEvent(ctx context.Context, details models.EventDetails) (*models.EventBundle, storage.Mode, error) {
	if err := validateDetails(details); err != nil {
		return nil, "", err
	}
	if details.ID == "" {
		details.ID = s.newID()
	}
	safe, session, err := s.session(details.ID)
	if err != nil {
		return nil, "", err
	}
	details.ID = safe

	session.mu.Lock()
	defer session.mu.Unlock()

	if _, err := s.store.Get(ctx, safe); err == nil {
		return nil, "", ErrEventExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", err
	}

	bundle := &models.EventBundle{Details: details, Participants: []models.Participant{}, Pairings: []models.Pairing{}}
	mode, err := s.store.Save(ctx, bundle)
	if err != nil {
		if session.Bundle == nil {
			s.forget(safe, session)
		}
		return nil, "", err
	}
	session.Bundle = cloneBundle(bundle)

	logger.Infof("Created event %s (%s), storage mode %s", safe, details.EventName, mode)
	return bundle, mode, nil
}

// GetEvent returns the full bundle for an event.
func (s *SantaService) GetEvent(ctx context.Context, id string) (*models.EventBundle, error) {
	return s.view(ctx, id)
}

// SaveBundle stores a client-supplied bundle wholesale, replacing any cached copy.
func (s *SantaService) SaveBundle(ctx context.Context, bundle *models.EventBundle) (storage.Mode, error) {
	if bundle == nil || bundle.Details.ID == "" {
		return "", fmt.Errorf("%w: details.id is required", ErrInvalidEvent)
	}
	safe, session, err := s.session(bundle.Details.ID)
	if err != nil {
		return "", err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	next := cloneBundle(bundle)
	next.Details.ID = safe
	mode, err := s.store.Save(ctx, next)
	if err != nil {
		if session.Bundle == nil {
			s.forget(safe, session)
		}
		return "", err
	}
	session.Bundle = next
	return mode, nil
}

// UpdateDetails replaces the event details. The event id cannot change.
func (s *SantaService) UpdateDetails(ctx context.Context, id string, details models.EventDetails) (*models.EventBundle, storage.Mode, error) {
	if err := validateDetails(details); err != nil {
		return nil, "", err
	}
	return s.update(ctx, id, func(b *models.EventBundle) error {
		details.ID = b.Details.ID
		b.Details = details
		return nil
	})
}

func (s *SantaService) prepareParticipant(p models.Participant) (models.Participant, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Group = strings.TrimSpace(p.Group)
	if p.Name == "" || p.Email == "" {
		return p, fmt.Errorf("%w: name and email are required", ErrInvalidParticipant)
	}
	p.ID = s.newID()
	return p, nil
}

// addParticipants appends ps. Any earlier draw no longer covers the list and
// is dropped.
func (s *SantaService) addParticipants(ctx context.Context, id string, ps []models.Participant) ([]models.Participant, storage.Mode, error) {
	added := make([]models.Participant, 0, len(ps))
	for _, p := range ps {
		prepared, err := s.prepareParticipant(p)
		if err != nil {
			return nil, "", err
		}
		added = append(added, prepared)
	}

	_, mode, err := s.update(ctx, id, func(b *models.EventBundle) error {
		b.Participants = append(b.Participants, added...)
		b.Pairings = []models.Pairing{}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return added, mode, nil
}

// AddParticipant adds one participant, assigning it a fresh id.
func (s *SantaService) AddParticipant(ctx context.Context, id string, p models.Participant) (models.Participant, storage.Mode, error) {
	added, mode, err := s.addParticipants(ctx, id, []models.Participant{p})
	if err != nil {
		return models.Participant{}, "", err
	}
	return added[0], mode, nil
}

// ImportTicket decodes a join ticket and adds its participant.
func (s *SantaService) ImportTicket(ctx context.Context, id, code string) (models.Participant, storage.Mode, error) {
	data, err := ticket.Decode(code)
	if err != nil {
		return models.Participant{}, "", err
	}
	return s.AddParticipant(ctx, id, data.Participant(""))
}

// ImportCSV adds every usable "name,email[,group]" row of r.
func (s *SantaService) ImportCSV(ctx context.Context, id string, r io.Reader) ([]models.Participant, storage.Mode, error) {
	parsed, err := ParseParticipantsCSV(r)
	if err != nil {
		return nil, "", err
	}
	if len(parsed) == 0 {
		return nil, "", fmt.Errorf("%w: no usable rows in csv", ErrInvalidParticipant)
	}
	return s.addParticipants(ctx, id, parsed)
}

// RemoveParticipant deletes a participant and drops any earlier draw.
func (s *SantaService) RemoveParticipant(ctx context.Context, id, participantID string) (storage.Mode, error) {
	_, mode, err := s.update(ctx, id, func(b *models.EventBundle) error {
		for i, p := range b.Participants {
			if p.ID == participantID {
				b.Participants = append(b.Participants[:i], b.Participants[i+1:]...)
				b.Pairings = []models.Pairing{}
				return nil
			}
		}
		return ErrParticipantNotFound
	})
	return mode, err
}

// Draw runs the pairing engine over the current participants and replaces
// the stored pairings with the result.
func (s *SantaService) Draw(ctx context.Context, id string) ([]models.Pairing, storage.Mode, error) {
	bundle, mode, err := s.update(ctx, id, func(b *models.EventBundle) error {
		participants := make([]*models.Participant, len(b.Participants))
		for i := range b.Participants {
			participants[i] = &b.Participants[i]
		}

		pairings, err := s.engine.Generate(participants)
		if err != nil {
			logger.Infof("Draw for event %s with %d participants failed: %v", b.Details.ID, len(participants), err)
			return err
		}
		b.Pairings = pairings
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	logger.Infof("Drew %d pairings for event %s", len(bundle.Pairings), bundle.Details.ID)
	return bundle.Pairings, mode, nil
}

// Pairings returns the organizer's master list of the current draw.
func (s *SantaService) Pairings(ctx context.Context, id string) ([]models.Pairing, error) {
	bundle, err := s.view(ctx, id)
	if err != nil {
		return nil, err
	}
	return currentPairings(bundle)
}

func currentPairings(bundle *models.EventBundle) ([]models.Pairing, error) {
	if len(bundle.Pairings) == 0 {
		return nil, ErrNoDraw
	}
	if err := ValidatePairings(bundle.Participants, bundle.Pairings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaleDraw, err)
	}
	return bundle.Pairings, nil
}

// Reveal returns the assignment of a single giver along with the message
// they would receive.
func (s *SantaService) Reveal(ctx context.Context, id, giverID string, tag language.Tag) (*Revelation, error) {
	bundle, err := s.view(ctx, id)
	if err != nil {
		return nil, err
	}
	pairings, err := currentPairings(bundle)
	if err != nil {
		return nil, err
	}

	for _, p := range pairings {
		if p.Giver.ID != giverID {
			continue
		}
		msg, err := notify.Compose(tag, bundle.Details, p)
		if err != nil {
			return nil, err
		}
		return &Revelation{Pairing: p, Message: msg}, nil
	}
	return nil, ErrParticipantNotFound
}

// Notify emails every giver their assignment and returns how many were sent.
func (s *SantaService) Notify(ctx context.Context, id string, tag language.Tag) (int, error) {
	bundle, err := s.view(ctx, id)
	if err != nil {
		return 0, err
	}
	pairings, err := currentPairings(bundle)
	if err != nil {
		return 0, err
	}

	reqs := make([]notify.SendRequest, 0, len(pairings))
	for _, p := range pairings {
		msg, err := notify.Compose(tag, bundle.Details, p)
		if err != nil {
			return 0, err
		}
		reqs = append(reqs, msg.Request(bundle.Details.OrganizerEmail))
	}

	results, err := s.sender.SendBatch(ctx, reqs)
	if err != nil {
		return len(results), fmt.Errorf("notify event %s: %w", bundle.Details.ID, err)
	}
	logger.Infof("Sent %d assignment emails for event %s", len(results), bundle.Details.ID)
	return len(results), nil
}

// CleanUpInactiveSessions drops cached events idle for longer than the TTL.
// The store keeps them; they are reloaded on the next access.
func (s *SantaService) CleanUpInactiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if s.now().Sub(session.LastActivity) > s.idleTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// ClearSession evicts a single event from the cache.
func (s *SantaService) ClearSession(id string) {
	safe, err := storage.SanitizeID(id)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, safe)
	logger.Infof("Cleared session for event: %s", safe)
}
