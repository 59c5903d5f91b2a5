package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Genesis holds the genesis block configuration. Immutable after chain
// launch; the wallet core only consumes it to seed fresh wallets.
type Genesis struct {
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`
	Symbol    string `json:"symbol,omitempty"`

	// Genesis block
	Timestamp uint64 `json:"timestamp"`
	ExtraData string `json:"extra_data,omitempty"`

	// Alloc maps address strings (bech32 or raw hex) to initial
	// balances in base units.
	Alloc map[string]uint64 `json:"alloc"`
}

// LoadGenesis reads a genesis configuration from a JSON file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	var gen Genesis
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil, fmt.Errorf("parse genesis: %w", err)
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Validate checks the genesis configuration.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("genesis chain_id must not be empty")
	}
	if g.Timestamp == 0 {
		return fmt.Errorf("genesis timestamp must be set")
	}
	var total uint64
	for addr, amount := range g.Alloc {
		if addr == "" {
			return fmt.Errorf("genesis alloc has empty address")
		}
		if total > ^uint64(0)-amount {
			return fmt.Errorf("genesis alloc overflows total supply")
		}
		total += amount
	}
	return nil
}
