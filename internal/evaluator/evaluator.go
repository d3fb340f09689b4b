// Package evaluator ranks poker hands. A hand evaluates to a rank class
// plus a tuple of tiebreaker ranks; comparing two results is rank class
// first, then lexicographic over the tiebreakers. Suits never influence
// ordering.
package evaluator

import (
	"fmt"
	"sort"

	"github.com/cardhall/holdem/internal/deck"
)

// HandRank is the class of a five-card hand, ordered weakest to strongest.
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the wire name of the rank class.
func (h HandRank) String() string {
	return [...]string{
		"HIGH_CARD",
		"PAIR",
		"TWO_PAIR",
		"THREE_OF_A_KIND",
		"STRAIGHT",
		"FLUSH",
		"FULL_HOUSE",
		"FOUR_OF_A_KIND",
		"STRAIGHT_FLUSH",
	}[h]
}

// Result is the evaluation of a five-card hand.
type Result struct {
	Rank        HandRank
	Tiebreakers []deck.Rank
	Cards       []deck.Card
}

// Compare orders results by rank class, then lexicographically by the
// tiebreaker tuple. Returns <0, 0 or >0.
func (r Result) Compare(other Result) int {
	if r.Rank != other.Rank {
		return int(r.Rank) - int(other.Rank)
	}
	for i := 0; i < len(r.Tiebreakers) && i < len(other.Tiebreakers); i++ {
		if r.Tiebreakers[i] != other.Tiebreakers[i] {
			return int(r.Tiebreakers[i]) - int(other.Tiebreakers[i])
		}
	}
	return len(r.Tiebreakers) - len(other.Tiebreakers)
}

// Less reports whether r ranks strictly below other.
func (r Result) Less(other Result) bool {
	return r.Compare(other) < 0
}

// EvaluateFive classifies exactly five cards.
func EvaluateFive(cards []deck.Card) (Result, error) {
	if len(cards) != 5 {
		return Result{}, fmt.Errorf("evaluate five: got %d cards", len(cards))
	}

	ranks := make([]deck.Rank, 5)
	for i, c := range cards {
		ranks[i] = c.Rank
	}
	sort.Sort(sort.Reverse(byRank(ranks)))

	isFlush := true
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			isFlush = false
			break
		}
	}

	distinct := make(map[deck.Rank]int, 5)
	for _, r := range ranks {
		distinct[r]++
	}

	isStraight := false
	var straightHigh deck.Rank
	if len(distinct) == 5 && ranks[0]-ranks[4] == 4 {
		isStraight = true
		straightHigh = ranks[0]
	}
	// Wheel: A-2-3-4-5 plays as a five-high straight.
	if len(distinct) == 5 && ranks[0] == deck.Ace && ranks[1] == deck.Five &&
		ranks[2] == deck.Four && ranks[3] == deck.Three && ranks[4] == deck.Two {
		isStraight = true
		straightHigh = deck.Five
	}

	// Rank groups sorted by count descending, then rank descending.
	type group struct {
		rank  deck.Rank
		count int
	}
	groups := make([]group, 0, len(distinct))
	for r, n := range distinct {
		groups = append(groups, group{rank: r, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	result := func(rank HandRank, tiebreakers ...deck.Rank) (Result, error) {
		return Result{Rank: rank, Tiebreakers: tiebreakers, Cards: cards}, nil
	}

	switch {
	case isStraight && isFlush:
		return result(StraightFlush, straightHigh)
	case groups[0].count == 4:
		return result(FourOfAKind, groups[0].rank, groups[1].rank)
	case groups[0].count == 3 && len(groups) == 2:
		return result(FullHouse, groups[0].rank, groups[1].rank)
	case isFlush:
		return result(Flush, ranks...)
	case isStraight:
		return result(Straight, straightHigh)
	case groups[0].count == 3:
		return result(ThreeOfAKind, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2 && groups[1].count == 2:
		return result(TwoPair, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2:
		return result(Pair, groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank)
	default:
		return result(HighCard, ranks...)
	}
}

// Evaluate returns the best five-card evaluation among all C(n,5) subsets
// of the given cards (hole cards plus board, typically 7).
func Evaluate(cards []deck.Card) (Result, error) {
	if len(cards) < 5 {
		return Result{}, fmt.Errorf("evaluate: need at least 5 cards, got %d", len(cards))
	}
	if len(cards) == 5 {
		return EvaluateFive(cards)
	}

	var best Result
	found := false
	for _, combo := range combinations(cards, 5) {
		r, err := EvaluateFive(combo)
		if err != nil {
			return Result{}, err
		}
		if !found || best.Less(r) {
			best = r
			found = true
		}
	}
	return best, nil
}

// Compare evaluates each card set with Evaluate and returns the indices
// holding the maximum result. Ties yield multiple indices.
func Compare(hands [][]deck.Card) ([]int, error) {
	if len(hands) == 0 {
		return nil, fmt.Errorf("compare: no hands")
	}

	results := make([]Result, len(hands))
	for i, h := range hands {
		r, err := Evaluate(h)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		results[i] = r
	}

	best := results[0]
	for _, r := range results[1:] {
		if best.Less(r) {
			best = r
		}
	}

	var winners []int
	for i, r := range results {
		if r.Compare(best) == 0 {
			winners = append(winners, i)
		}
	}
	return winners, nil
}

// combinations returns all k-card subsets of cards, preserving order.
func combinations(cards []deck.Card, k int) [][]deck.Card {
	var out [][]deck.Card
	combo := make([]deck.Card, 0, k)

	var generate func(start int)
	generate = func(start int) {
		if len(combo) == k {
			c := make([]deck.Card, k)
			copy(c, combo)
			out = append(out, c)
			return
		}
		for i := start; i < len(cards); i++ {
			combo = append(combo, cards[i])
			generate(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	generate(0)
	return out
}

type byRank []deck.Rank

func (r byRank) Len() int           { return len(r) }
func (r byRank) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r byRank) Less(i, j int) bool { return r[i] < r[j] }
