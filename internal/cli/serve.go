package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long serve waits for open requests on exit.
const shutdownTimeout = 5 * time.Second

const defaultListen = ":9100"

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, pool state and metrics over HTTP",
		Long: `Serve a read-only HTTP endpoint until interrupted:
- /health   liveness check
- /pools    every pool with its reserves, as JSON
- /metrics  Prometheus metrics, when metrics are enabled`,
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			if addr == "" {
				addr = a.cfg.Metrics.Listen
			}
			if addr == "" {
				addr = defaultListen
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           newServeMux(a),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.log.Info("serving", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		}),
	}
	cmd.Flags().StringVar(&addr, "listen", "", "listen address (defaults to metrics.listen, then :9100)")
	return cmd
}

// newServeMux builds the handlers served by serve.
func newServeMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"cpammd"}`))
	})
	mux.HandleFunc("/pools", func(w http.ResponseWriter, r *http.Request) {
		pools, err := a.engine.Pools(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("%s: %v", amm.Code(err), err), http.StatusInternalServerError)
			return
		}
		views := make([]poolView, 0, len(pools))
		for _, p := range pools {
			views = append(views, newPoolView(p))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = printJSON(w, views)
	})
	if a.metrics != nil {
		mux.Handle("/metrics", a.metrics.Handler())
	}
	return mux
}
