package services

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"santa/internal/models"
)

// MaxDrawAttempts bounds the number of shuffles tried before a draw is given up.
const MaxDrawAttempts = 1000

var (
	// ErrInsufficientParticipants is returned when fewer than two people are drawn.
	ErrInsufficientParticipants = errors.New("insufficient participants")
	// ErrDrawExhausted is returned when no valid assignment was found within
	// MaxDrawAttempts. Impossible constraints and bad luck look the same.
	ErrDrawExhausted = errors.New("unable to generate a valid draw")
)

// PairingEngine assigns every participant a gift recipient by rejection
// sampling over random permutations. It holds no mutable state and may be
// shared between goroutines as long as its shuffle function is safe to share.
type PairingEngine struct {
	shuffle     func(n int, swap func(i, j int))
	maxAttempts int
}

// NewPairingEngine returns an engine using the global math/rand/v2 source.
func NewPairingEngine() *PairingEngine {
	return &PairingEngine{shuffle: rand.Shuffle, maxAttempts: MaxDrawAttempts}
}

// NewPairingEngineWithSource returns an engine drawing from src. The engine is
// only as concurrency-safe as src.
func NewPairingEngineWithSource(src rand.Source) *PairingEngine {
	return &PairingEngine{shuffle: rand.New(src).Shuffle, maxAttempts: MaxDrawAttempts}
}

// Generate pairs participants[i] with the i-th element of a shuffled copy,
// retrying until nobody draws themselves or a member of their own group.
// The input slice and its participants are left untouched.
func (e *PairingEngine) Generate(participants []*models.Participant) ([]models.Pairing, error) {
	if len(participants) < 2 {
		return nil, ErrInsufficientParticipants
	}

	shuffled := make([]*models.Participant, len(participants))
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		copy(shuffled, participants)
		e.shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		if pairings, ok := buildPairings(participants, shuffled); ok {
			return pairings, nil
		}
	}

	return nil, ErrDrawExhausted
}

func buildPairings(givers, receivers []*models.Participant) ([]models.Pairing, bool) {
	pairings := make([]models.Pairing, 0, len(givers))
	for i, giver := range givers {
		receiver := receivers[i]
		if !allowed(*giver, *receiver) {
			return nil, false
		}
		pairings = append(pairings, models.Pairing{Giver: *giver, Receiver: *receiver})
	}
	return pairings, true
}

func allowed(giver, receiver models.Participant) bool {
	return giver.ID != receiver.ID && !giver.SameGroup(receiver)
}

// ValidatePairings checks that pairings is a complete, constraint-respecting
// assignment over participants: everybody gives once and receives once.
func ValidatePairings(participants []models.Participant, pairings []models.Pairing) error {
	if len(pairings) != len(participants) {
		return fmt.Errorf("pairings cover %d of %d participants", len(pairings), len(participants))
	}

	known := make(map[string]bool, len(participants))
	for _, p := range participants {
		known[p.ID] = true
	}

	gives := make(map[string]bool, len(pairings))
	receives := make(map[string]bool, len(pairings))
	for _, p := range pairings {
		if !known[p.Giver.ID] || !known[p.Receiver.ID] {
			return fmt.Errorf("pairing %s -> %s references an unknown participant", p.Giver.ID, p.Receiver.ID)
		}
		if !allowed(p.Giver, p.Receiver) {
			return fmt.Errorf("pairing %s -> %s breaks the draw rules", p.Giver.ID, p.Receiver.ID)
		}
		if gives[p.Giver.ID] {
			return fmt.Errorf("participant %s gives more than once", p.Giver.ID)
		}
		if receives[p.Receiver.ID] {
			return fmt.Errorf("participant %s receives more than once", p.Receiver.ID)
		}
		gives[p.Giver.ID] = true
		receives[p.Receiver.ID] = true
	}

	return nil
}
