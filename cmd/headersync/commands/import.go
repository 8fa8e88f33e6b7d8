package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/syncnet/headersync/headersync"
	"github.com/syncnet/headersync/p2p"
	"github.com/syncnet/headersync/types"
)

const (
	sourcePeerKey uint64 = 1
	localPeerKey  uint64 = 2
)

// ImportCmd syncs headers from another node home on the same machine,
// running the full request, validate and import path over an in-process
// network.
var ImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Sync headers from another local node's store",
	RunE:  importHeaders,
}

var importSource string

func init() {
	ImportCmd.Flags().StringVar(&importSource, "source", "", "home directory of the node to sync from")
	_ = ImportCmd.MarkFlagRequired("source")
}

func importHeaders(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, err := openHeaderStore(config)
	if err != nil {
		return err
	}
	defer local.Close()

	srcConfig := *config
	srcConfig.SetRoot(importSource)
	source, err := openHeaderStore(&srcConfig)
	if err != nil {
		return err
	}
	defer source.Close()

	metrics := headersync.NopMetrics()
	netMetrics := p2p.NopMetrics()
	if config.Instrumentation.Prometheus {
		metrics = headersync.PrometheusMetrics(config.Instrumentation.Namespace)
		netMetrics = p2p.PrometheusMetrics(config.Instrumentation.Namespace)
		srv := startPrometheusServer(config.Instrumentation.PrometheusListenAddr)
		defer srv.Close()
	}

	validator := types.NewBasicValidator(config.HeaderSync.MaxExtraDataSize, config.HeaderSync.MaxFutureDrift)
	net := p2p.NewMemNetwork(netMetrics)

	server, err := headersync.NewReactor(config.HeaderSync, source, validator)
	if err != nil {
		return err
	}
	server.SetLogger(logger.With("module", "headersync", "node", "source"))
	server.SetTransport(net.Join(sourcePeerKey, server))

	importer := headersync.NewHeaderImporter(local)
	client, err := headersync.NewReactor(config.HeaderSync, local, validator,
		headersync.WithConsumer(importer),
		headersync.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	client.SetLogger(logger.With("module", "headersync"))
	client.SetTransport(net.Join(localPeerKey, client))

	target := source.BestBlockNumber()
	client.AddPeer(sourcePeerKey, importSource)
	client.UpdatePeerStatus(sourcePeerKey, target, source.TotalDifficulty())

	if err := client.Start(); err != nil {
		return err
	}
	defer func() {
		if err := client.Stop(); err != nil {
			logger.Error("Failed to stop header sync", "err", err)
		}
	}()

	logger.Info("Importing headers", "source", importSource, "from", local.BestBlockNumber()+1, "to", target)
	return waitForHeight(ctx, local, client, target)
}

func waitForHeight(ctx context.Context, local headersync.ChainReader, client *headersync.Reactor, target uint64) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		best := local.BestBlockNumber()
		if best >= target {
			logger.Info("Import complete", "best", best)
			return nil
		}

		select {
		case <-ctx.Done():
			logger.Info("Import interrupted", "best", best, "target", target)
			return nil
		case <-ticker.C:
			logger.Info("Importing",
				"best", best,
				"target", target,
				"staged", client.Status().MaxStaged(),
				"pending", client.Pending().Len(),
				"headers/s", client.Status().Speed())
		}
	}
}

func startPrometheusServer(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Prometheus HTTP server ListenAndServe", "err", err)
		}
	}()
	return srv
}

