package game

// Evaluate scores a set of cards strictly by the highest individual card
// value present. Pairs, straights and flushes are deliberately not
// recognized; every caller compares scores only for order.
func Evaluate(cards []Card) int {
	best := -1
	for _, c := range cards {
		if v := rankValue(c.Rank); v > best {
			best = v
		}
	}
	return best
}

// Winners returns every player whose combined hole+community score is
// maximal. The result is non-empty whenever players is non-empty; ties
// yield multiple winners.
func Winners(players []*Player, community []Card) []*Player {
	best := -1
	var winners []*Player
	for _, p := range players {
		score := Evaluate(append(append([]Card(nil), p.Hand...), community...))
		switch {
		case score > best:
			best = score
			winners = winners[:0]
			winners = append(winners, p)
		case score == best:
			winners = append(winners, p)
		}
	}
	return winners
}
