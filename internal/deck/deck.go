package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// ErrUnderflow is returned when a deal asks for more cards than remain.
var ErrUnderflow = errors.New("not enough cards in deck")

// Deck represents an ordered deck of playing cards. The random source is
// injected so games and tests can run with reproducible shuffles.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a full 52-card deck in deterministic order using the
// provided random source for subsequent shuffles.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	d.Reset()
	return d
}

// NewStacked builds a deck that deals the given cards front to back,
// with no random source. Tests use it to rig exact boards.
func NewStacked(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Reset restores the deck to all 52 cards in deterministic order.
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
}

// Shuffle applies a uniform random permutation to the remaining cards.
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the top n cards.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("deal %d with %d remaining: %w", n, len(d.cards), ErrUnderflow)
	}
	dealt := make([]Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt, nil
}

// DealOne removes and returns the top card. A burn is a DealOne whose
// result the caller discards.
func (d *Deck) DealOne() (Card, error) {
	cards, err := d.Deal(1)
	if err != nil {
		return Card{}, err
	}
	return cards[0], nil
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
