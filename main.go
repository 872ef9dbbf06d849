package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"defiprice/pkg/coingecko"
	"defiprice/pkg/config"
	"defiprice/pkg/feed"
	"defiprice/pkg/logging"
	"defiprice/pkg/models"
	"defiprice/pkg/tui"
	"defiprice/pkg/wallet"
)

// Version should be set during build
var Version = "dev"

func main() {
	testFlag := flag.Bool("t", false, "Test configuration and exit")
	testLongFlag := flag.Bool("test", false, "Test configuration and exit")
	jsonFlag := flag.Bool("json", false, "Output test results as JSON")
	configFlag := flag.String("config", "", "Path to configuration file (.json, .yaml or .yml)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	initFlag := flag.Bool("init", false, "Write a default configuration file and exit")
	restoreFlag := flag.Bool("restore", false, "Restore the most recent configuration backup and exit")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	logFlag := flag.String("log", "", "Path to log file (default: none, or "+logging.DefaultLogFile+" with -debug)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("defiprice version %s\n", Version)
		os.Exit(0)
	}

	cfgInput := *configFlag
	if cfgInput == "" && len(flag.Args()) > 0 {
		cfgInput = flag.Args()[0]
	}
	path, err := config.GetConfigPath(cfgInput)
	if err != nil {
		fmt.Printf("Error determining config path: %v\n", err)
		os.Exit(1)
	}

	if *restoreFlag {
		if err := config.RestoreLastBackup(path); err != nil {
			fmt.Printf("Failed to restore backup for %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Restored last backup to %s\n", path)
		os.Exit(0)
	}

	if *initFlag {
		if err := config.SaveConfig(config.Default(), path); err != nil {
			fmt.Printf("Failed to write config to %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
		os.Exit(0)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Printf("Error loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		fmt.Printf("Error loading config from %s: %v\n", path, err)
		os.Exit(1)
	}
	cfg = config.ApplyEnv(cfg, os.LookupEnv)

	if *testFlag || *testLongFlag {
		report := runConfigTest(context.Background(), cfg, path, *jsonFlag, os.Stdout)
		if *jsonFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		}
		if !report.ValidStructure || report.APIStatus != "ok" {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Printf("Error: %s\n", p)
		}
		fmt.Printf("Please fix the configuration at %s.\n", path)
		os.Exit(1)
	}

	log, closer, err := logging.New(*logFlag, *debugFlag)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}

	client := coingecko.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.RequestTimeout())
	poller := feed.NewPoller(client, models.CoinIDs(), cfg.RefreshInterval(), log)
	controller := wallet.NewController(wallet.NewDetector(cfg.Wallets), buildProviders(cfg.Wallets), cfg.ConnectTimeout(), log)

	log.WithField("config", path).Info("starting dashboard")
	err = tui.Start(context.Background(), poller, controller, log, Version)
	_ = closer.Close()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func buildProviders(w config.WalletConfig) []wallet.Provider {
	return []wallet.Provider{
		wallet.NewEVMProvider(w.EVMRPCURL, w.EVMLabel),
		wallet.NewSolanaProvider(w.SolanaKeypairPath, w.SolanaLabel),
		wallet.NewSubstrateProvider(w.SubstrateWSURL, w.SubstrateLabel),
	}
}

// runConfigTest validates the configuration, probes the price API once and
// reports which wallet providers are available. Human-readable progress goes
// to out unless jsonOut is set.
func runConfigTest(ctx context.Context, cfg config.Config, path string, jsonOut bool, out io.Writer) models.TestReport {
	say := func(format string, args ...interface{}) {
		if !jsonOut {
			fmt.Fprintf(out, format, args...)
		}
	}

	report := models.TestReport{
		ConfigPath:     path,
		ValidStructure: true,
		APIBaseURL:     cfg.APIBaseURL,
		TrackedCoins:   len(models.TrackedCoins()),
	}
	say("Testing configuration at: %s\n", path)

	if problems := cfg.Validate(); len(problems) > 0 {
		report.ValidStructure = false
		report.StructureErrors = problems
		report.APIStatus = "skipped"
		for _, p := range problems {
			say("Error: %s\n", p)
		}
		return report
	}

	say("Price API: %s ... ", cfg.APIBaseURL)
	client := coingecko.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.RequestTimeout())
	start := time.Now()
	snap, err := client.FetchPrices(ctx, models.CoinIDs())
	report.APILatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		report.APIStatus = "error"
		report.APIError = err.Error()
		say("Failed: %v\n", err)
	} else {
		report.APIStatus = "ok"
		report.QuotedCoins = len(snap)
		say("OK (%d/%d coins quoted, %dms)\n", report.QuotedCoins, report.TrackedCoins, report.APILatencyMS)
	}

	detector := wallet.NewDetector(cfg.Wallets)
	for _, p := range buildProviders(cfg.Wallets) {
		res := models.ProviderResult{
			Name:     p.Kind().String(),
			Label:    p.Label(),
			Detected: detector.Detected(p.Kind()),
			Source:   detector.Source(p.Kind()),
		}
		report.Providers = append(report.Providers, res)
		if res.Detected {
			say("Wallet %-10s %s (%s)\n", res.Name, res.Label, res.Source)
		} else {
			say("Wallet %-10s not configured\n", res.Name)
		}
	}
	return report
}
