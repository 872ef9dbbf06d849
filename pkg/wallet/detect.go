package wallet

import (
	"os"
	"strings"

	"defiprice/pkg/config"
)

// Detector probes the host environment for configured wallet providers.
// Probes are synchronous reads and safe to call on every render.
type Detector struct {
	cfg  config.WalletConfig
	stat func(string) (os.FileInfo, error)
}

func NewDetector(cfg config.WalletConfig) *Detector {
	return &Detector{cfg: cfg, stat: os.Stat}
}

// HasEVM reports whether an EVM JSON-RPC endpoint is configured.
func (d *Detector) HasEVM() bool {
	return strings.TrimSpace(d.cfg.EVMRPCURL) != ""
}

// HasSolana reports whether a Solana keypair file is configured and present.
func (d *Detector) HasSolana() bool {
	path := strings.TrimSpace(d.cfg.SolanaKeypairPath)
	if path == "" {
		return false
	}
	fi, err := d.stat(expandHome(path))
	return err == nil && !fi.IsDir()
}

// HasSubstrate reports whether a Substrate signer endpoint is configured.
func (d *Detector) HasSubstrate() bool {
	return strings.TrimSpace(d.cfg.SubstrateWSURL) != ""
}

// Detected dispatches to the probe for kind.
func (d *Detector) Detected(kind ProviderKind) bool {
	switch kind {
	case EVM:
		return d.HasEVM()
	case Solana:
		return d.HasSolana()
	case Substrate:
		return d.HasSubstrate()
	}
	return false
}

// Available lists the detected providers in display order.
func (d *Detector) Available() []ProviderKind {
	var out []ProviderKind
	for _, k := range AllKinds {
		if d.Detected(k) {
			out = append(out, k)
		}
	}
	return out
}

// Source describes where a provider would be found, for diagnostics.
func (d *Detector) Source(kind ProviderKind) string {
	switch kind {
	case EVM:
		return d.cfg.EVMRPCURL
	case Solana:
		return d.cfg.SolanaKeypairPath
	case Substrate:
		return d.cfg.SubstrateWSURL
	}
	return ""
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}
