package txbuilder

import (
	"fmt"
	"sort"

	"github.com/Vantar-tech/vantar-wallet/pkg/crypto"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// GetOwnUtxos fetches the wallet's unspent outputs at the given
// addresses from the wallet DB.
type GetOwnUtxos func(addrs []types.Address) (map[types.Outpoint]tx.Output, error)

// SignerForAddr resolves the signer controlling an address. Returning
// an error means no safe signer is available for it.
type SignerForAddr func(addr types.Address) (crypto.Signer, error)

// AddrData allocates the change address for a new transaction.
type AddrData func() (types.Address, error)

// IsRedeemAddr reports whether an address is a known redeem address.
// Nil means no redeem addresses are known.
type IsRedeemAddr func(addr types.Address) bool

// PrepareMTx builds and signs a transaction spending UTXO owned by any
// of sourceAddrs, each input signed by the signer that controls its
// address. Returns the signed transaction and the final output list
// (including the change output, if any).
func PrepareMTx(
	getOwnUtxos GetOwnUtxos,
	signerFor SignerForAddr,
	pending map[types.Outpoint]struct{},
	policy Policy,
	sourceAddrs []types.Address,
	outputs []tx.Output,
	addrData AddrData,
	isRedeem IsRedeemAddr,
) (*tx.Aux, []tx.Output, error) {
	if len(outputs) == 0 {
		return nil, nil, fmt.Errorf("%w: no outputs", ErrFailedToStabilize)
	}
	for _, out := range outputs {
		if out.Address.IsZero() {
			return nil, nil, ErrInvalidAddressFormat
		}
		if isRedeem != nil && isRedeem(out.Address) {
			return nil, nil, ErrOutputIsRedeem
		}
	}

	var target types.Coin
	for _, out := range outputs {
		target = target.Add(out.Value)
	}

	utxoMap, err := getOwnUtxos(sourceAddrs)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch own utxos: %w", err)
	}
	utxos := flattenUtxos(utxoMap)

	selection, err := SelectInputs(policy, utxos, pending, target)
	if err != nil {
		return nil, nil, err
	}

	finalOutputs := make([]tx.Output, len(outputs))
	copy(finalOutputs, outputs)
	if selection.Change > 0 {
		changeAddr, err := addrData()
		if err != nil {
			return nil, nil, fmt.Errorf("allocate change address: %w", err)
		}
		finalOutputs = append(finalOutputs, tx.Output{
			Address: changeAddr,
			Value:   selection.Change,
		})
	}

	builder := tx.NewBuilder()
	inputOwners := make([]types.Address, len(selection.Inputs))
	for i, input := range selection.Inputs {
		builder.AddInput(input.Outpoint)
		inputOwners[i] = input.Output.Address
	}
	for _, out := range finalOutputs {
		builder.AddOutput(out.Address, out.Value)
	}

	aux, err := builder.SignEach(func(i int) (crypto.Signer, error) {
		signer, err := signerFor(inputOwners[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSafeSignerNotFound, inputOwners[i])
		}
		return signer, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return aux, finalOutputs, nil
}

// PrepareRedemptionTx drains the redeem key's address into dstAddr:
// every UTXO at the redeem address becomes an input of a single-output
// transaction paying the whole balance. Fails with ErrRedemptionDepleted
// when nothing is there to redeem.
func PrepareRedemptionTx(
	getOwnUtxos GetOwnUtxos,
	redeemKey *crypto.RedeemKey,
	dstAddr types.Address,
) (*tx.Aux, types.Address, types.Coin, error) {
	redeemAddr := redeemKey.Address()
	if dstAddr == redeemAddr {
		return nil, redeemAddr, 0, ErrOutputIsRedeem
	}
	if dstAddr.IsZero() {
		return nil, redeemAddr, 0, ErrInvalidAddressFormat
	}

	utxoMap, err := getOwnUtxos([]types.Address{redeemAddr})
	if err != nil {
		return nil, redeemAddr, 0, fmt.Errorf("fetch redeem utxos: %w", err)
	}
	utxos := flattenUtxos(utxoMap)

	values := make([]types.Coin, len(utxos))
	for i, u := range utxos {
		values[i] = u.Output.Value
	}
	balance, err := types.SumCoins(values)
	if err != nil {
		return nil, redeemAddr, 0, fmt.Errorf("sum redeem balance: %w", err)
	}
	if balance == 0 {
		return nil, redeemAddr, 0, ErrRedemptionDepleted
	}

	builder := tx.NewBuilder()
	for _, u := range utxos {
		builder.AddInput(u.Outpoint)
	}
	builder.AddOutput(dstAddr, balance)

	aux, err := builder.Sign(redeemKey)
	if err != nil {
		return nil, redeemAddr, 0, err
	}
	return aux, redeemAddr, balance, nil
}

// SubmitTx builds a single-owner transaction spending the signer's own
// address, submits it, and saves it into the mempool snapshot. The save
// happens whether or not any peer accepted the broadcast.
func SubmitTx(
	enqueue EnqueueFn,
	getOwnUtxos GetOwnUtxos,
	pending map[types.Outpoint]struct{},
	mps Snapshot,
	signer crypto.Signer,
	outputs []tx.Output,
	addrData AddrData,
) (*tx.Aux, []tx.Output, error) {
	ownAddr := crypto.AddressFromPubKey(signer.PublicKey())

	aux, finalOutputs, err := PrepareMTx(
		getOwnUtxos,
		func(addr types.Address) (crypto.Signer, error) {
			if addr != ownAddr {
				return nil, fmt.Errorf("address %s is not the submitter's", addr)
			}
			return signer, nil
		},
		pending,
		OptimizeForSecurity,
		[]types.Address{ownAddr},
		outputs,
		addrData,
		nil,
	)
	if err != nil {
		return nil, nil, err
	}

	SubmitAndSave(mps, enqueue, aux)
	return aux, finalOutputs, nil
}

// flattenUtxos converts the wallet DB's map form into a deterministic
// slice, sorted by outpoint so selection is reproducible.
func flattenUtxos(utxoMap map[types.Outpoint]tx.Output) []UTXO {
	utxos := make([]UTXO, 0, len(utxoMap))
	for op, out := range utxoMap {
		utxos = append(utxos, UTXO{Outpoint: op, Output: out})
	}
	sort.Slice(utxos, func(i, j int) bool {
		if utxos[i].Outpoint.TxID != utxos[j].Outpoint.TxID {
			return utxos[i].Outpoint.TxID.String() < utxos[j].Outpoint.TxID.String()
		}
		return utxos[i].Outpoint.Index < utxos[j].Outpoint.Index
	})
	return utxos
}
