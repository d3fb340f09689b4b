package game

import "sort"

// Pot holds collected chips and the nicknames eligible to win them.
type Pot struct {
	Amount   int
	Eligible []string
}

// CollectBets moves every player's current-round bet into the main pot,
// folded players' dead money included, and refreshes the pot's
// eligibility to the players still in the hand.
func (g *Game) CollectBets() {
	h := g.Hand
	collected := 0
	for _, ph := range h.PlayerHands {
		collected += ph.CurrentBet
		ph.CurrentBet = 0
	}
	if len(h.Pots) == 0 {
		h.Pots = []Pot{{}}
	}
	h.Pots[0].Amount += collected
	h.Pots[0].Eligible = nicknames(g.UnfoldedPlayers())
}

// BuildShowdownPots splits the chips in the middle into a main pot and
// side pots layered by total contribution. Each distinct total among the
// unfolded players opens a layer; every player's chips, folded players'
// included, count toward the layers they covered. A player is eligible
// for a layer if their total contribution reaches it. Chips above the
// highest live layer (possible when the hand's biggest bettor folded)
// stay in the top pot.
//
// Call after CollectBets so all bets are accounted in TotalBet. The
// hand's pot list is replaced with the result.
func (g *Game) BuildShowdownPots() []Pot {
	h := g.Hand
	unfolded := g.UnfoldedPlayers()

	levels := make([]int, 0, len(unfolded))
	seen := make(map[int]bool)
	for _, p := range unfolded {
		total := h.PlayerHands[p.Nickname].TotalBet
		if !seen[total] {
			seen[total] = true
			levels = append(levels, total)
		}
	}
	sort.Ints(levels)

	var pots []Pot
	prev, assigned := 0, 0
	for _, level := range levels {
		pot := Pot{}
		for _, ph := range h.PlayerHands {
			pot.Amount += min(ph.TotalBet, level) - min(ph.TotalBet, prev)
		}
		for _, p := range unfolded {
			if h.PlayerHands[p.Nickname].TotalBet >= level {
				pot.Eligible = append(pot.Eligible, p.Nickname)
			}
		}
		assigned += pot.Amount
		pots = append(pots, pot)
		prev = level
	}

	total := 0
	for _, ph := range h.PlayerHands {
		total += ph.TotalBet
	}
	if rest := total - assigned; rest > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += rest
	}

	h.Pots = pots
	return pots
}

func nicknames(players []*Player) []string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Nickname)
	}
	return names
}
