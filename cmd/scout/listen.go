//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/ja7ad/scout/pkg/api"
	"github.com/ja7ad/scout/pkg/transport"
	"github.com/ja7ad/scout/pkg/types"
)

func newListenCmd() *cobra.Command {
	var (
		target string
		bind   string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Subscribe to an agent and log its reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if target == "" {
				return errors.New("--target is required")
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			return listen(cmd.Context(), logger, transport.Address(target), bind, count)
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "agent address (host:port)")
	cmd.Flags().StringVar(&bind, "bind", "0.0.0.0:0", "local UDP address")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after this many reports (0 = until Ctrl-C)")
	return cmd
}

func listen(ctx context.Context, logger logr.Logger, target transport.Address, bind string, count int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := transport.ListenUDP(ctx, logger, bind)
	if err != nil {
		return err
	}
	defer func() {
		_ = tr.Close()
	}()

	if err := tr.Send(target, api.SerIDProtobuf, (&api.Subscribe{}).Marshal()); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	logger.Info("subscribed", "target", target, "local", tr.Addr())

	last := make(map[transport.Address]netSeen)
	for received := 0; count == 0 || received < count; {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-tr.Inbound():
			if !ok {
				return nil
			}
			r, err := api.DecodeReport(env.SerID, env.Payload)
			if err != nil {
				logger.Error(err, "undecodable message", "from", env.From)
				continue
			}
			received++
			logReport(logger, env.From, r, last)
		}
	}
	return nil
}

// netSeen is the last network counters received from one agent.
type netSeen struct {
	at     time.Time
	rx, tx types.Bytes
}

func logReport(logger logr.Logger, from transport.Address, r *api.MetricReport, last map[transport.Address]netSeen) {
	kv := []any{
		"from", from,
		"id", r.ID,
		"memUsage", types.Bytes(r.Memory.Usage).Humanized(),
		"memLimit", types.Bytes(r.Memory.Limit).Humanized(),
		"cpuTotal", r.CPU.Total,
		"cpuSystem", r.CPU.System,
	}
	if r.Network != nil {
		now := netSeen{at: time.Now(), rx: types.Bytes(r.Network.RxBytes), tx: types.Bytes(r.Network.TxBytes)}
		kv = append(kv,
			"rx", now.rx.Humanized(),
			"tx", now.tx.Humanized(),
			"rxPackets", r.Network.RxPackets,
			"txPackets", r.Network.TxPackets,
		)
		if prev, ok := last[from]; ok {
			d := now.at.Sub(prev.at)
			kv = append(kv, "rxRate", types.Rate(prev.rx, now.rx, d), "txRate", types.Rate(prev.tx, now.tx, d))
		}
		last[from] = now
	}
	if r.IO != nil {
		kv = append(kv,
			"ioRead", types.Bytes(r.IO.Read).Humanized(),
			"ioWrite", types.Bytes(r.IO.Write).Humanized(),
		)
	}
	logger.Info("report", kv...)
}
