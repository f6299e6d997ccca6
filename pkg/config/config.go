package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Twitter
	TwitterBearerToken string
	NitterInstances    []string
	MaxTweets          int

	// Solana
	SolanaRPCURL string

	// Market data
	DexScreenerAPI  string
	JupiterTokenAPI string

	// Monitored accounts
	AlphaHunters []string
	TopHunters   []string

	// Scan pacing
	ScanInterval time.Duration
	SourceDelay  time.Duration
	AddressDelay time.Duration

	// Chain inspection
	SignatureFetchLimit int

	// DB
	DBPath string

	// HTTP
	Port int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TwitterBearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
		MaxTweets:          envInt("MAX_TWEETS", 20),

		SolanaRPCURL: envOr("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),

		DexScreenerAPI:  envOr("DEXSCREENER_API", "https://api.dexscreener.com"),
		JupiterTokenAPI: envOr("JUPITER_TOKEN_API", "https://tokens.jup.ag"),

		ScanInterval: time.Duration(envInt("SCAN_INTERVAL_MINUTES", 10)) * time.Minute,
		SourceDelay:  time.Duration(envInt("SOURCE_DELAY_MS", 2000)) * time.Millisecond,
		AddressDelay: time.Duration(envInt("ADDRESS_DELAY_MS", 250)) * time.Millisecond,

		SignatureFetchLimit: envInt("SIGNATURE_FETCH_LIMIT", 1000),

		DBPath: envOr("DB_PATH", "alpha_radar.db"),
		Port:   envInt("PORT", 8080),
	}

	if v := os.Getenv("NITTER_INSTANCES"); v != "" {
		cfg.NitterInstances = splitTrim(v)
	} else {
		cfg.NitterInstances = []string{"https://nitter.privacydev.net"}
	}

	if v := os.Getenv("ALPHA_HUNTERS"); v != "" {
		cfg.AlphaHunters = splitTrim(v)
	} else {
		cfg.AlphaHunters = DefaultAlphaHunters
	}

	if v := os.Getenv("TOP_HUNTERS"); v != "" {
		cfg.TopHunters = splitTrim(v)
	} else {
		cfg.TopHunters = DefaultTopHunters
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.AlphaHunters) == 0 {
		return fmt.Errorf("no alpha hunter accounts configured")
	}
	if c.ScanInterval < time.Minute {
		return fmt.Errorf("scan interval %s too aggressive, minimum is 1m", c.ScanInterval)
	}
	return nil
}

// IsTopHunter reports whether a handle is in the curated top-hunters
// allowlist (case-insensitive).
func (c *Config) IsTopHunter(handle string) bool {
	for _, h := range c.TopHunters {
		if strings.EqualFold(h, handle) {
			return true
		}
	}
	return false
}

// DefaultAlphaHunters is the built-in watch list, overridable via
// ALPHA_HUNTERS.
var DefaultAlphaHunters = []string{
	"blknoiz06", "MustStopMurad", "notthreadguy", "Poe_Ether", "shahh",
	"cryptolyxe", "0xSweep", "DegenerateNews", "SolJakey", "ZssBecker",
}

// DefaultTopHunters feeds the ALPHA_HUNTER tag: accounts with a track
// record strong enough that their mention alone is a signal.
var DefaultTopHunters = []string{
	"blknoiz06", "MustStopMurad", "cryptolyxe", "0xSweep",
}

// ReservedAddresses are syntactically valid base58 pubkeys that can never
// be tradable alpha: system programs, the incinerator, and blue-chip mints
// that show up constantly in copy-paste posts.
var ReservedAddresses = map[string]bool{
	"11111111111111111111111111111111":             true, // system program
	"1nc1nerator11111111111111111111111111111111":  true, // burn incinerator
	"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA":  true, // SPL token program
	"TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb":  true, // token-2022
	"ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL": true, // associated token
	"ComputeBudget111111111111111111111111111111":  true,
	"MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr":  true,
	"So11111111111111111111111111111111111111112":  true, // wrapped SOL
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": true, // USDC
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": true, // USDT
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  true, // Jupiter
}

// helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
