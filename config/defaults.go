package config

import "path/filepath"

// Protocol constants. These must match the chain or the wallet's view
// diverges from consensus.
const (
	// Decimals and denomination: 1 coin = 10^12 base units.
	Decimals  = 12
	Coin      = 1_000_000_000_000
	MilliCoin = 1_000_000_000
	MicroCoin = 1_000_000

	// BlkSecurityParam is the consensus parameter k: no reorganization
	// can rewrite history deeper than k blocks. The sync engine's
	// lock-free catch-up phase relies on it.
	BlkSecurityParam uint64 = 60

	// SlotDurationSec is the slot length in seconds.
	SlotDurationSec uint64 = 20
)

// DefaultMainnet returns the default wallet core configuration for mainnet.
func DefaultMainnet() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		Network: Mainnet,
		DataDir: dataDir,
		P2P: P2PConfig{
			Enabled:    true,
			ListenAddr: "0.0.0.0",
			Port:       30411,
			MaxPeers:   50,
			Seeds:      []string{},
		},
		Wallet: WalletConfig{
			KeystoreDir:     filepath.Join(dataDir, "keystore"),
			Accounts:        4,
			Lookahead:       64,
			SyncInterval:    10,
			SelectionPolicy: "security",
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default wallet core configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.P2P.Port = 30412
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
