package crypto

import (
	"fmt"

	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// RedeemKey is a standalone (non-HD) secp256k1 key distributed for
// one-shot balance redemption. Its address is derived directly from the
// public key so that holders of a redeem certificate can be paid before
// ever creating a wallet.
type RedeemKey struct {
	priv *PrivateKey
}

// RedeemKeyFromBytes builds a redeem key from a 32-byte secret.
func RedeemKeyFromBytes(secret []byte) (*RedeemKey, error) {
	priv, err := PrivateKeyFromBytes(secret)
	if err != nil {
		return nil, fmt.Errorf("redeem key: %w", err)
	}
	return &RedeemKey{priv: priv}, nil
}

// PublicKey returns the compressed public key of the redeem key.
func (rk *RedeemKey) PublicKey() []byte {
	return rk.priv.PublicKey()
}

// Address returns the chain address funds redeemable by this key sit at.
func (rk *RedeemKey) Address() types.Address {
	return MakeRedeemAddress(rk.priv.PublicKey())
}

// Sign produces a Schnorr signature over a 32-byte hash.
func (rk *RedeemKey) Sign(hash []byte) ([]byte, error) {
	return rk.priv.Sign(hash)
}

// MakeRedeemAddress derives the redeem address for a compressed public
// key. Redeem addresses share the normal address derivation so redeem
// outputs are ordinary P2PKH-style outputs on chain.
func MakeRedeemAddress(pubKey []byte) types.Address {
	return AddressFromPubKey(pubKey)
}
