package cli

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nunet/pkg/codegen"
	"github.com/matzehuels/nunet/pkg/observability/metrics"
	"github.com/matzehuels/nunet/pkg/pipeline"
	"github.com/matzehuels/nunet/pkg/server"
	"github.com/matzehuels/nunet/pkg/session"
)

// sweepInterval is how often expired sessions are removed.
const sweepInterval = time.Minute

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		sessionDir string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for remote editing sessions",
		Long: `Serve exposes design editing over HTTP. Each session holds one design
with its own undo history; edits are posted as script steps.

Metrics are exported in Prometheus format at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("session-dir") {
				cfg.SessionDir = sessionDir
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics.New(reg).Install()

			sessions, err := c.openSessions(cfg.SessionDir)
			if err != nil {
				return err
			}
			st, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(server.Config{
				Sessions:   sessions,
				Storage:    st,
				Runner:     runner,
				Gatherer:   reg,
				Logger:     c.Logger,
				SessionTTL: cfg.SessionTTL,
				Defaults:   c.synapseDefaults(),
				Generate: pipeline.Options{
					Name:         c.Config.Network.Name,
					LearningRate: c.Config.Network.LearningRate,
					Format:       codegen.Format(c.Config.Network.Format),
				},
			})

			printInfo("Listening on %s", StyleValue.Render("http://"+cfg.Addr))
			printDetail("Backend: %s", c.Config.Storage.Backend)
			return srv.ListenAndServe(ctx, cfg.Addr, sweepInterval)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVar(&sessionDir, "session-dir", "", "persist sessions in this directory instead of memory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the generation cache")

	return cmd
}

// openSessions keeps sessions on disk when dir is set and in memory
// otherwise.
func (c *CLI) openSessions(dir string) (session.Store, error) {
	if dir == "" {
		return session.NewMemoryStore(), nil
	}
	fs, err := session.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("sessions on disk", "dir", fs.Path())
	return fs, nil
}
