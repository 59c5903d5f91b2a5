package types

import "fmt"

// Coin is an amount of base currency units. All wallet arithmetic uses the
// checked operations below; silent wraparound would corrupt balances.
type Coin uint64

// MaxCoin is the largest representable amount.
const MaxCoin = Coin(^uint64(0))

// Add returns c + other, panicking on overflow. Overflowing coin
// arithmetic is a programmer error, not a recoverable condition.
func (c Coin) Add(other Coin) Coin {
	if c > MaxCoin-other {
		panic(fmt.Sprintf("coin overflow: %d + %d", c, other))
	}
	return c + other
}

// Sub returns c - other, panicking on underflow.
func (c Coin) Sub(other Coin) Coin {
	if other > c {
		panic(fmt.Sprintf("coin underflow: %d - %d", c, other))
	}
	return c - other
}

// SumCoins adds a slice of coins, returning an error instead of panicking.
// The redemption path uses this because an overflowing redeem balance is
// caller input, not an internal invariant violation.
func SumCoins(coins []Coin) (Coin, error) {
	var total Coin
	for _, c := range coins {
		if total > MaxCoin-c {
			return 0, fmt.Errorf("coin sum overflow")
		}
		total += c
	}
	return total, nil
}
