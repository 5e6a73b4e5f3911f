// Command validator-watcher is a real-time observability agent for an
// Ethereum consensus-layer node: given a watched set of validator public
// keys, it follows the live chain head and alerts on missed proposals,
// sub-optimal attestation inclusion, missed attestation duties, and
// upcoming proposals.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rocket-pool/validator-watcher/config"
	"github.com/rocket-pool/validator-watcher/entrypoint"
	"github.com/rocket-pool/validator-watcher/internal/services"
)

var (
	beaconURLFlag = &cli.StringFlag{
		Name:     "beacon-url",
		Usage:    "URL of the beacon node to watch",
		Required: true,
	}
	pubkeysFilePathFlag = &cli.PathFlag{
		Name:  "pubkeys-file-path",
		Usage: "File containing the newline-separated list of public keys to watch",
	}
	web3signerURLFlag = &cli.StringSliceFlag{
		Name:  "web3signer-url",
		Usage: "URL of a web3signer instance managing keys to watch (repeatable)",
	}
	livenessFileFlag = &cli.PathFlag{
		Name:  "liveness-file",
		Usage: "File touched on every processed slot, for external watchdogs",
	}
	slackChannelFlag = &cli.StringFlag{
		Name:  "slack-channel",
		Usage: "Slack channel to post missed-proposal alerts to",
	}
	slackTokenFlag = &cli.StringFlag{
		Name:  "slack-token",
		Usage: "Slack bot token used to post alerts",
	}
	metricsPortFlag = &cli.IntFlag{
		Name:  "metrics-port",
		Usage: "Port the Prometheus /metrics exposition server listens on",
		Value: 8000,
	}
	logFileFlag = &cli.PathFlag{
		Name:  "log-file",
		Usage: "File to write structured logs to; defaults to stderr",
	}
)

func main() {
	app := &cli.App{
		Name:  "validator-watcher",
		Usage: "watch a set of validators and alert on missed duties",
		Flags: []cli.Flag{
			beaconURLFlag,
			pubkeysFilePathFlag,
			web3signerURLFlag,
			livenessFileFlag,
			slackChannelFlag,
			slackTokenFlag,
			metricsPortFlag,
			logFileFlag,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	cfg := &config.Config{
		BeaconURL:        cliCtx.String(beaconURLFlag.Name),
		PubkeysFilePath:  cliCtx.Path(pubkeysFilePathFlag.Name),
		Web3SignerURLs:   cliCtx.StringSlice(web3signerURLFlag.Name),
		LivenessFilePath: cliCtx.Path(livenessFileFlag.Name),
		SlackChannel:     cliCtx.String(slackChannelFlag.Name),
		SlackToken:       cliCtx.String(slackTokenFlag.Name),
		MetricsAddr:      fmt.Sprintf(":%d", cliCtx.Int(metricsPortFlag.Name)),
		LogFilePath:      cliCtx.Path(logFileFlag.Name),
	}
	cfg.ApplyEnvFallback()

	provider, err := services.NewProvider(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	return entrypoint.Run(provider.BaseContext(), cfg, provider)
}
