package session

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
)

// BetBoard holds the chips staked on each symbol. It carries no payout rules.
// Callers serialize access; Session does so under its own lock.
type BetBoard struct {
	stakes map[jhandi.Key]decimal.Decimal
}

// NewBetBoard returns a board with a zero stake on every symbol.
func NewBetBoard() *BetBoard {
	b := &BetBoard{stakes: make(map[jhandi.Key]decimal.Decimal, jhandi.DiceCount)}
	b.Clear()
	return b
}

// Place adds amount to the stake on key and returns the new stake.
func (b *BetBoard) Place(key jhandi.Key, amount decimal.Decimal) (decimal.Decimal, error) {
	if _, ok := jhandi.Lookup(key); !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", jhandi.ErrUnknownSymbol, key)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: got %s", ErrInvalidBet, amount)
	}
	b.stakes[key] = b.stakes[key].Add(amount)
	return b.stakes[key], nil
}

// Clear resets every stake to zero.
func (b *BetBoard) Clear() {
	for _, k := range jhandi.Keys() {
		b.stakes[k] = decimal.Zero
	}
}

// Stakes returns a copy of the board.
func (b *BetBoard) Stakes() map[jhandi.Key]decimal.Decimal {
	out := make(map[jhandi.Key]decimal.Decimal, len(b.stakes))
	for k, v := range b.stakes {
		out[k] = v
	}
	return out
}

// Total sums every stake.
func (b *BetBoard) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b.stakes {
		total = total.Add(v)
	}
	return total
}
