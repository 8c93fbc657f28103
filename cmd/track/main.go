package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koenbollen/logging"
	"github.com/poki/tracking/internal/util"
	"github.com/poki/tracking/tracking"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flags struct {
	token  string
	funnel string
	step   int
	event  bool
	noSSL  bool
	time   int64
	ip     string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logging.New(ctx, "tracking", "track")
	defer logger.Sync() // nolint:errcheck
	ctx = logging.WithLogger(ctx, logger)

	if err := newCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	f := flags{}
	cmd := &cobra.Command{
		Use:   "track <event> [key=value ...]",
		Short: "Record an event or funnel step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args[0], args[1:])
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&f.token, "token", util.Getenv("TOKEN", ""), "project token (default $TOKEN)")
	cmd.Flags().StringVar(&f.funnel, "funnel", "", "record a step of this funnel with the event as goal")
	cmd.Flags().IntVar(&f.step, "step", 1, "funnel step")
	cmd.Flags().BoolVar(&f.event, "event", false, "also record the plain event when --funnel is set")
	cmd.Flags().BoolVar(&f.noSSL, "no-ssl", false, "send over plain http")
	cmd.Flags().Int64Var(&f.time, "time", 0, "backdate the event to this unix timestamp")
	cmd.Flags().StringVar(&f.ip, "ip", "", "remote address used for ip and distinct_id")
	return cmd
}

func run(ctx context.Context, f flags, name string, pairs []string) error {
	logger := logging.GetLogger(ctx)

	if f.token == "" {
		return errors.New("no project token, pass --token or set TOKEN")
	}
	props, err := parseProperties(pairs)
	if err != nil {
		return err
	}
	if f.time != 0 {
		props["time"] = f.time
	}

	opts := tracking.RecordOptions{Event: f.event}
	if f.funnel != "" {
		if f.step < 1 {
			return fmt.Errorf("invalid funnel step %d", f.step)
		}
		opts.Funnel = &tracking.Funnel{Name: f.funnel, Step: f.step}
	}

	var req tracking.RemoteAddressProvider
	if f.ip != "" {
		req = tracking.Addr(f.ip)
	}

	client := tracking.NewClient(f.token, tracking.Options{
		DisableSSL: f.noSSL,
		Logger:     logger,
	})
	ok, err := client.Record(ctx, name, props, opts, req)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("failed to record event")
	}
	logger.Info("recorded", zap.String("event", name))
	return nil
}
