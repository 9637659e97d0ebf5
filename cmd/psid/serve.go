package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dogmatiq/psikit/dispatch"
	"github.com/dogmatiq/psikit/internal/config"
	"github.com/dogmatiq/psikit/transport/grpctransport"
	"github.com/dogmatiq/psikit/transport/httptransport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// shutdownTimeout is how long in-flight HTTP requests are given to complete
// once the service is asked to stop.
const shutdownTimeout = 10 * time.Second

// serve runs the configured listeners until ctx is canceled or one of them
// fails.
func serve(
	ctx context.Context,
	logger *zap.Logger,
	d *dispatch.Dispatcher,
	cfg config.ListenConfig,
) error {
	var httpLis, grpcLis net.Listener

	if cfg.HTTP != "" {
		lis, err := net.Listen("tcp", cfg.HTTP)
		if err != nil {
			return err
		}
		httpLis = lis
	}

	if cfg.GRPC != "" {
		lis, err := net.Listen("tcp", cfg.GRPC)
		if err != nil {
			if httpLis != nil {
				httpLis.Close()
			}
			return err
		}
		grpcLis = lis
	}

	g, ctx := errgroup.WithContext(ctx)

	if lis := httpLis; lis != nil {
		server := &http.Server{
			Handler:           httptransport.NewRouter(d, cfg.HTTPTimeout),
			ReadHeaderTimeout: 10 * time.Second,
		}

		logger.Info("http listener started", zap.Stringer("addr", lis.Addr()))

		g.Go(func() error {
			if err := server.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			logger.Info("http listener stopping")
			return server.Shutdown(shutdownCtx)
		})
	}

	if lis := grpcLis; lis != nil {
		server := grpc.NewServer()
		grpctransport.RegisterSetIntersectionServer(
			server,
			&grpctransport.Server{Dispatcher: d},
		)

		logger.Info("grpc listener started", zap.Stringer("addr", lis.Addr()))

		g.Go(func() error {
			return server.Serve(lis)
		})

		g.Go(func() error {
			<-ctx.Done()
			logger.Info("grpc listener stopping")
			server.GracefulStop()
			return nil
		})
	}

	return g.Wait()
}
