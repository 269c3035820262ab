package game

import "math/rand"

// Card is immutable once constructed. Code is the display form ("A♠", "10♦").
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
	Code string `json:"code"`
}

var (
	suits = []string{"♠", "♥", "♦", "♣"}
	ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}
)

func newCard(rank, suit string) Card {
	return Card{Rank: rank, Suit: suit, Code: rank + suit}
}

// rankValue is the card's position in rank order, 0 for "2" up to 12 for "A".
// Unknown ranks score -1 so they never win anything.
func rankValue(rank string) int {
	for i, r := range ranks {
		if r == rank {
			return i
		}
	}
	return -1
}

// Deck is the 52 distinct cards in a shuffled order, consumed from the top.
type Deck struct {
	cards []Card
	next  int
}

// NewDeck builds a full deck and Fisher-Yates shuffles it with the given
// source, which callers inject so tests can fix the order.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for _, s := range suits {
		for _, r := range ranks {
			d.cards = append(d.cards, newCard(r, s))
		}
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	return d
}

// Draw deals the next card. The deck is never drawn past 52 within a hand:
// 2 hole cards per seat plus 5 community cards stays well under capacity.
func (d *Deck) Draw() Card {
	c := d.cards[d.next]
	d.next++
	return c
}

func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
