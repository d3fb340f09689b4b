package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardhall/holdem/internal/randutil"
)

func TestNewDeckHas52DistinctCards(t *testing.T) {
	t.Parallel()

	d := New(randutil.New(1))
	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool)
	cards, err := d.Deal(52)
	require.NoError(t, err)
	for _, c := range cards {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestShuffleKeepsCardSetIntact(t *testing.T) {
	t.Parallel()

	d := New(randutil.New(42))
	d.Shuffle()

	dealt := make(map[Card]bool)
	for d.Remaining() > 0 {
		c, err := d.DealOne()
		require.NoError(t, err)
		require.False(t, dealt[c], "duplicate card %s after shuffle", c)
		dealt[c] = true
	}
	assert.Len(t, dealt, 52)
}

func TestShuffleIsDeterministicForSeed(t *testing.T) {
	t.Parallel()

	a := New(randutil.New(7))
	b := New(randutil.New(7))
	a.Shuffle()
	b.Shuffle()

	ca, err := a.Deal(52)
	require.NoError(t, err)
	cb, err := b.Deal(52)
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestDealUnderflow(t *testing.T) {
	t.Parallel()

	d := New(randutil.New(1))
	_, err := d.Deal(50)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Remaining())

	_, err = d.Deal(3)
	require.ErrorIs(t, err, ErrUnderflow)

	// A failed deal must not consume cards.
	assert.Equal(t, 2, d.Remaining())

	_, err = d.Deal(2)
	require.NoError(t, err)
	_, err = d.DealOne()
	require.ErrorIs(t, err, ErrUnderflow)
}

func TestResetRestoresFullDeck(t *testing.T) {
	t.Parallel()

	d := New(randutil.New(9))
	d.Shuffle()
	_, err := d.Deal(30)
	require.NoError(t, err)

	d.Reset()
	assert.Equal(t, 52, d.Remaining())

	// Reset order is deterministic: first card is the two of clubs.
	c, err := d.DealOne()
	require.NoError(t, err)
	assert.Equal(t, Card{Rank: Two, Suit: Clubs}, c)
}
