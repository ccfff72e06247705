package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orgmap/pkg/metrics"
	"orgmap/pkg/server"
	"orgmap/pkg/session"
	"orgmap/pkg/suggest"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload, mapping and hierarchy HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return c.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	s, err := suggest.New(ctx, c.cfg.Suggest)
	if err != nil {
		return withCode(exitConfig, err)
	}
	provider := "none"
	if s != nil {
		provider = s.Name()
	}

	m := metrics.New()
	sessions := session.NewManager(session.Options{
		Suggester:       s,
		Required:        c.cfg.RequiredFields(),
		SuggestTimeout:  c.cfg.Suggest.Timeout,
		TTL:             c.cfg.Sessions.TTL,
		JanitorInterval: c.cfg.Sessions.JanitorInterval,
		MaxSessions:     c.cfg.Sessions.MaxSessions,
		Logger:          c.logger,
		Metrics:         m,
	})
	defer sessions.Close()

	c.logger.Info("starting orgmap",
		zap.String("version", version),
		zap.String("addr", c.cfg.Server.Addr),
		zap.String("provider", provider))

	srv := server.New(server.Options{
		Sessions: sessions,
		Config:   c.cfg.Server,
		Logger:   c.logger,
		Metrics:  m,
	})
	return srv.Run(ctx)
}
