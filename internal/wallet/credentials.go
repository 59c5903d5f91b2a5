package wallet

import (
	"fmt"

	"github.com/Vantar-tech/vantar-wallet/pkg/crypto"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// IDSize is the length of a wallet identifier in bytes.
const IDSize = 20

// ID is a short content-addressed wallet identifier, derived from the
// wallet's encrypted root seed. Stable across restarts because the
// stored ciphertext is stable.
type ID [IDSize]byte

// IDFromEncryptedSeed derives a wallet id from the encrypted root seed.
func IDFromEncryptedSeed(encSeed []byte) ID {
	h := crypto.Hash(encSeed)
	var id ID
	copy(id[:], h[:IDSize])
	return id
}

// String returns the bech32-encoded wallet id (e.g. "vntw1...").
func (id ID) String() string {
	s, err := types.Bech32Encode(types.WalletHRP, id[:])
	if err != nil {
		return fmt.Sprintf("%x", id[:])
	}
	return s
}

// IsZero returns true if the id is all zeros.
func (id ID) IsZero() bool {
	return id == ID{}
}

// AddressMeta is an owned address with its HD coordinates and its
// chain-visible identifier.
type AddressMeta struct {
	Wallet  ID            `json:"wallet"`
	Account uint32        `json:"account"`
	Index   uint32        `json:"index"`
	CId     types.Address `json:"cid"`
}

// AccountKey identifies an account within a wallet.
type AccountKey struct {
	Wallet  ID
	Account uint32
}

// AccountOf projects the meta's wallet and account coordinates.
func (m AddressMeta) AccountOf() AccountKey {
	return AccountKey{Wallet: m.Wallet, Account: m.Account}
}

// DecrCredentials answers ownership questions for one wallet: whether a
// chain address is derivable from the wallet's root key and, if so, at
// which HD coordinates. Classification is a pure lookup over a window of
// pre-derived addresses, so it never errors; a miss just means "not ours".
type DecrCredentials struct {
	walletID ID
	byAddr   map[types.Address]AddressMeta
}

// Credentials derives the decryption credentials for a wallet: every
// address at m/44'/7421'/account'/0/index for account < accounts and
// index < lookahead is derived and indexed.
func Credentials(walletID ID, master *HDKey, accounts, lookahead uint32) (*DecrCredentials, error) {
	if accounts == 0 || lookahead == 0 {
		return nil, fmt.Errorf("accounts and lookahead must be positive")
	}

	byAddr := make(map[types.Address]AddressMeta, accounts*lookahead)
	for account := uint32(0); account < accounts; account++ {
		for index := uint32(0); index < lookahead; index++ {
			key, err := master.DeriveAddressKey(account, index)
			if err != nil {
				return nil, fmt.Errorf("derive %d/%d: %w", account, index, err)
			}
			addr := key.Address()
			byAddr[addr] = AddressMeta{
				Wallet:  walletID,
				Account: account,
				Index:   index,
				CId:     addr,
			}
		}
	}

	return &DecrCredentials{walletID: walletID, byAddr: byAddr}, nil
}

// WalletID returns the wallet this credentials object answers for.
func (c *DecrCredentials) WalletID() ID {
	return c.walletID
}

// Classify reports whether addr belongs to the wallet, returning its HD
// coordinates if so.
func (c *DecrCredentials) Classify(addr types.Address) (AddressMeta, bool) {
	meta, ok := c.byAddr[addr]
	return meta, ok
}

// OwnedAddresses returns every address in the credentials window.
// Order is unspecified.
func (c *DecrCredentials) OwnedAddresses() []AddressMeta {
	out := make([]AddressMeta, 0, len(c.byAddr))
	for _, meta := range c.byAddr {
		out = append(out, meta)
	}
	return out
}
