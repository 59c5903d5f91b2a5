package tracker

import (
	"github.com/Vantar-tech/vantar-wallet/internal/wallet"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// EvalChange decides which own outputs of a transaction are change
// rather than genuinely received funds.
//
// allUsed is the set of addresses already observed on chain,
// ownInputs and ownOutputs are the transaction's wallet-owned sides, and
// allOutputsOur reports whether every output of the transaction belongs
// to the wallet.
//
// Rules, in order:
//  1. No own inputs: incoming transaction, nothing is change.
//  2. Candidates are own outputs in the same account as the first own
//     input.
//  3. Candidates already used on chain are dropped.
//  4. A self-transfer where every own output survives filtering marks
//     nothing as change.
//
// I: rule 4 exists because a transaction paying only ourselves gives no
// signal which output the user meant as the payment.
func EvalChange(
	allUsed map[types.Address]struct{},
	ownInputs []wallet.AddressMeta,
	ownOutputs []wallet.AddressMeta,
	allOutputsOur bool,
) []types.Address {
	if len(ownInputs) == 0 {
		return nil
	}

	srcAccount := ownInputs[0].AccountOf()

	var potential []types.Address
	for _, out := range ownOutputs {
		if out.AccountOf() != srcAccount {
			continue
		}
		if _, used := allUsed[out.CId]; used {
			continue
		}
		potential = append(potential, out.CId)
	}

	if allOutputsOur && len(potential) == len(ownOutputs) {
		return nil
	}
	return potential
}
