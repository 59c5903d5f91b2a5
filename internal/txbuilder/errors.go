// Package txbuilder constructs, signs, and submits wallet transactions.
package txbuilder

import "errors"

// Builder errors. They surface as return values from the Prepare*
// functions; the submission wrapper re-raises them unchanged.
var (
	// ErrNotEnoughFunds: the wallet's UTXO cannot cover the outputs.
	ErrNotEnoughFunds = errors.New("not enough funds")

	// ErrNotEnoughAllowedMoney: funds exist, but the usable subset
	// (after excluding inputs held by pending transactions) cannot
	// cover the outputs.
	ErrNotEnoughAllowedMoney = errors.New("not enough allowed money")

	// ErrFailedToStabilize: input selection failed to converge.
	ErrFailedToStabilize = errors.New("failed to stabilize tx")

	// ErrOutputIsRedeem: an output pays to a redeem address.
	ErrOutputIsRedeem = errors.New("output is a redeem address")

	// ErrRedemptionDepleted: the redeem address holds a zero balance.
	ErrRedemptionDepleted = errors.New("redemption address is depleted")

	// ErrSafeSignerNotFound: no signer is known for a source address.
	ErrSafeSignerNotFound = errors.New("safe signer not found")

	// ErrSignedTxNotBase16: an externally signed transaction payload
	// was not valid base16.
	ErrSignedTxNotBase16 = errors.New("signed transaction is not base16")

	// ErrInvalidAddressFormat: an output address failed to parse.
	ErrInvalidAddressFormat = errors.New("invalid address format")
)
