package txbuilder

import (
	"fmt"
	"sort"

	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Policy selects the input-selection strategy. It is an enumerated
// configuration value, not a callback, so behavior stays inspectable.
type Policy int

const (
	// OptimizeForSecurity prefers fewer, larger inputs.
	OptimizeForSecurity Policy = iota
	// OptimizeForHighThroughput prefers inputs not referenced by
	// currently pending transactions, spending small outputs first so
	// large ones stay free for parallel spends.
	OptimizeForHighThroughput
)

// ParsePolicy converts a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "security":
		return OptimizeForSecurity, nil
	case "throughput":
		return OptimizeForHighThroughput, nil
	}
	return 0, fmt.Errorf("unknown selection policy %q", s)
}

// UTXO is one spendable output owned by the wallet.
type UTXO struct {
	Outpoint types.Outpoint
	Output   tx.Output
}

// Selection holds the result of input selection.
type Selection struct {
	Inputs []UTXO     // Selected UTXOs to spend.
	Total  types.Coin // Sum of selected input values.
	Change types.Coin // Change = Total - target.
}

// SelectInputs chooses UTXOs to fund a transaction of the given target
// amount. Inputs locked by pending transactions are never selected;
// when excluding them makes the target unreachable, the error
// distinguishes that from a genuine shortage.
func SelectInputs(policy Policy, utxos []UTXO, pending map[types.Outpoint]struct{}, target types.Coin) (*Selection, error) {
	if target == 0 {
		return nil, fmt.Errorf("target must be positive")
	}

	var candidates []UTXO
	var totalAll, totalFree types.Coin
	for _, u := range utxos {
		if u.Output.Value == 0 {
			continue
		}
		totalAll = totalAll.Add(u.Output.Value)
		if _, locked := pending[u.Outpoint]; locked {
			continue
		}
		totalFree = totalFree.Add(u.Output.Value)
		candidates = append(candidates, u)
	}

	if totalAll < target {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughFunds, totalAll, target)
	}
	if totalFree < target {
		return nil, fmt.Errorf("%w: have %d free of %d, need %d",
			ErrNotEnoughAllowedMoney, totalFree, totalAll, target)
	}

	switch policy {
	case OptimizeForHighThroughput:
		return accumulateAscending(candidates, target), nil
	default:
		return selectForSecurity(candidates, target), nil
	}
}

// selectForSecurity tries two strategies and keeps whichever wastes the
// least change:
//  1. Single UTXO: the smallest single output that covers the target.
//  2. Largest-first accumulation.
func selectForSecurity(candidates []UTXO, target types.Coin) *Selection {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Output.Value < candidates[j].Output.Value
	})

	var single *Selection
	for _, u := range candidates {
		if u.Output.Value >= target {
			single = &Selection{
				Inputs: []UTXO{u},
				Total:  u.Output.Value,
				Change: u.Output.Value - target,
			}
			break // Sorted ascending; the first match is smallest.
		}
	}

	var accum *Selection
	var selected []UTXO
	var total types.Coin
	for i := len(candidates) - 1; i >= 0; i-- {
		selected = append(selected, candidates[i])
		total = total.Add(candidates[i].Output.Value)
		if total >= target {
			accum = &Selection{
				Inputs: selected,
				Total:  total,
				Change: total - target,
			}
			break
		}
	}

	switch {
	case single != nil && accum != nil:
		if single.Change <= accum.Change {
			return single
		}
		return accum
	case single != nil:
		return single
	default:
		return accum
	}
}

// accumulateAscending spends the smallest free outputs first.
func accumulateAscending(candidates []UTXO, target types.Coin) *Selection {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Output.Value < candidates[j].Output.Value
	})

	var selected []UTXO
	var total types.Coin
	for _, u := range candidates {
		selected = append(selected, u)
		total = total.Add(u.Output.Value)
		if total >= target {
			break
		}
	}
	return &Selection{
		Inputs: selected,
		Total:  total,
		Change: total - target,
	}
}
