// Vantar wallet tracking daemon.
//
// Usage:
//
//	vantar-walletd --wallets=<a,b,...>    Track the named keystore wallets (default: all)
//	vantar-walletd --help                 Show help
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Vantar-tech/vantar-wallet/config"
	"github.com/Vantar-tech/vantar-wallet/internal/chaindb"
	"github.com/Vantar-tech/vantar-wallet/internal/log"
	"github.com/Vantar-tech/vantar-wallet/internal/mempool"
	"github.com/Vantar-tech/vantar-wallet/internal/p2p"
	"github.com/Vantar-tech/vantar-wallet/internal/slotting"
	"github.com/Vantar-tech/vantar-wallet/internal/storage"
	"github.com/Vantar-tech/vantar-wallet/internal/tracker"
	"github.com/Vantar-tech/vantar-wallet/internal/txbuilder"
	"github.com/Vantar-tech/vantar-wallet/internal/wallet"
	"github.com/Vantar-tech/vantar-wallet/internal/walletdb"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		confPath    = flag.String("conf", "", "path to wallet.conf (default <datadir>/wallet.conf)")
		networkFlag = flag.String("network", "mainnet", "network: mainnet or testnet")
		dataDir     = flag.String("datadir", "", "data directory (default platform-specific)")
		walletNames = flag.String("wallets", "", "comma-separated keystore wallet names (default: all)")
	)
	flag.Parse()

	cfg := config.Default(config.NetworkType(*networkFlag))
	if *dataDir != "" {
		cfg.DataDir = *dataDir
		cfg.Wallet.KeystoreDir = filepath.Join(*dataDir, "keystore")
	}

	path := *confPath
	if path == "" {
		path = filepath.Join(cfg.DataDir, "wallet.conf")
	}
	values, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.ApplyFileConfig(cfg, values); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.EnsureDataDirs(cfg); err != nil {
		return err
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	}

	// Chain DB: the node's store, read by the tracker.
	chainStore, err := openStore(filepath.Join(cfg.DataDir, "chain"))
	if err != nil {
		return fmt.Errorf("open chain db: %w", err)
	}
	defer chainStore.Close()
	chain := chaindb.NewStore(chainStore)

	walletStore, err := openStore(filepath.Join(cfg.DataDir, "wallets"))
	if err != nil {
		return fmt.Errorf("open wallet db: %w", err)
	}
	defer walletStore.Close()
	wdb := walletdb.New(walletStore)

	credsList, err := loadCredentials(cfg, *walletNames)
	if err != nil {
		return err
	}
	if len(credsList) == 0 {
		return fmt.Errorf("no wallets in keystore %s", cfg.Wallet.KeystoreDir)
	}

	genesis, err := chain.GetHeaderByHeight(0)
	if err != nil {
		return fmt.Errorf("chain db has no genesis block: %w", err)
	}
	clock := slotting.NewSystemClock(slotting.Data{
		SystemStart:  genesis.Timestamp,
		SlotDuration: config.SlotDurationSec,
	})

	lock := chaindb.NewStateLock(func() (types.Hash, error) {
		tip, err := chain.GetTipHeader()
		if err != nil {
			return types.Hash{}, err
		}
		return tip.Hash(), nil
	})

	syncer := tracker.NewSyncer(chain, lock, wdb, clock, config.BlkSecurityParam)

	pool := mempool.New(0)
	broadcaster := p2p.NewBroadcaster()
	if cfg.P2P.Enabled {
		broadcaster.SetTxHandler(func(msg txbuilder.Msg) {
			if err := pool.Add(msg.Contents); err != nil {
				log.Mempool.Debug().Str("txid", msg.TxID.String()).Err(err).Msg("relay rejected")
			}
		})
		if err := broadcaster.Start(cfg.P2P); err != nil {
			return fmt.Errorf("start broadcaster: %w", err)
		}
		defer broadcaster.Close()
	}

	interval := time.Duration(cfg.Wallet.SyncInterval) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Logger.Info().
		Int("wallets", len(credsList)).
		Str("network", string(cfg.Network)).
		Msg("wallet tracker running")

	syncer.SyncWallets(credsList)
	for {
		select {
		case <-ticker.C:
			syncer.SyncWallets(credsList)
		case <-sigCh:
			log.Logger.Info().Msg("shutting down")
			return nil
		}
	}
}

// loadCredentials opens each requested keystore wallet, prompting for
// its passphrase, and derives its tracking credentials.
func loadCredentials(cfg *config.Config, namesCSV string) ([]*wallet.DecrCredentials, error) {
	ks, err := wallet.NewKeystore(cfg.Wallet.KeystoreDir)
	if err != nil {
		return nil, err
	}

	var names []string
	if namesCSV != "" {
		for _, n := range strings.Split(namesCSV, ",") {
			if trimmed := strings.TrimSpace(n); trimmed != "" {
				names = append(names, trimmed)
			}
		}
	} else {
		names, err = ks.List()
		if err != nil {
			return nil, err
		}
	}

	var out []*wallet.DecrCredentials
	for _, name := range names {
		fmt.Printf("Passphrase for wallet %q: ", name)
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("read passphrase: %w", err)
		}

		seed, err := ks.Load(name, pw)
		if err != nil {
			return nil, fmt.Errorf("unlock wallet %q: %w", name, err)
		}
		master, err := wallet.NewMasterKey(seed)
		if err != nil {
			return nil, err
		}

		encSeed, err := ks.EncryptedSeed(name)
		if err != nil {
			return nil, err
		}
		creds, err := wallet.Credentials(
			wallet.IDFromEncryptedSeed(encSeed),
			master,
			cfg.Wallet.Accounts,
			cfg.Wallet.Lookahead,
		)
		if err != nil {
			return nil, fmt.Errorf("derive credentials for %q: %w", name, err)
		}
		out = append(out, creds)
	}
	return out, nil
}

func openStore(path string) (storage.DB, error) {
	return storage.NewBadger(path)
}
