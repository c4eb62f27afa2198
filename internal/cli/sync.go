package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GTDGit/pdv_api/internal/cache"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/pkg/yampi"
)

type syncOrdersOptions struct {
	limit        int
	statusIDs    []int
	dateFrom     string
	dateTo       string
	autoClassify bool
}

// syncOutcome is what sync-orders prints.
type syncOutcome struct {
	Sync         *service.SyncResult         `json:"sync"`
	AutoClassify *service.AutoClassifyResult `json:"autoClassify,omitempty"`
}

// NewSyncOrdersCommand creates the sync-orders command.
func NewSyncOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &syncOrdersOptions{}

	cmd := &cobra.Command{
		Use:   "sync-orders",
		Short: "Synchronize every external order",
		Long: `Fetch every order page from the store and upsert it, using the store
credentials saved in settings. Shares the sync lock with the API, so it
fails if a sync is already running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			return runSyncOrders(cmd.Context(), rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 50, "orders per page")
	cmd.Flags().IntSliceVar(&opts.statusIDs, "status", nil, "only orders with these status ids")
	cmd.Flags().StringVar(&opts.dateFrom, "date-from", "", "only orders created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.dateTo, "date-to", "", "only orders created on or before this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.autoClassify, "auto-classify", false, "run the classifier over pending items afterwards")

	return cmd
}

func runSyncOrders(ctx context.Context, rootOpts *RootOptions, opts *syncOrdersOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	redisClient, err := cache.NewRedisClient(&e.cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	settings := service.NewSettingsService(repository.NewSettingRepository(e.db))
	if err := settings.Init(ctx); err != nil {
		return err
	}

	cfg := e.cfg
	recon := service.NewReconciliationService(
		repository.NewOrderRepository(e.db),
		repository.NewProductRepository(e.db),
		repository.NewAttractionRepository(e.db),
		func(creds yampi.Credentials) service.OrderSource {
			return yampi.NewClient(cfg.Upstream.YampiBaseURL, creds, cfg.Upstream.Timeout, yampi.WithLocation(cfg.Location()))
		},
		settings,
		cache.NewSyncLock(redisClient, cfg.Worker.SyncLockTTL),
		nil,
	)

	out := syncOutcome{}
	out.Sync, err = recon.SyncOrders(ctx, service.SyncOptions{
		Limit:     opts.limit,
		StatusIDs: opts.statusIDs,
		DateFrom:  opts.dateFrom,
		DateTo:    opts.dateTo,
	})
	if err != nil {
		if out.Sync != nil {
			_ = printResult(w, rootOpts, out, func(w io.Writer) { printSync(w, out) })
		}
		return err
	}
	if opts.autoClassify {
		if out.AutoClassify, err = recon.AutoClassifyPending(ctx); err != nil {
			return err
		}
	}
	return printResult(w, rootOpts, out, func(w io.Writer) { printSync(w, out) })
}

func printSync(w io.Writer, out syncOutcome) {
	s := out.Sync
	fmt.Fprintf(w, "Pages:           %d/%d\n", s.PagesProcessed, s.TotalPages)
	fmt.Fprintf(w, "Created:         %d\n", s.Created)
	fmt.Fprintf(w, "Updated:         %d\n", s.Updated)
	fmt.Fprintf(w, "Errors:          %d\n", s.Errors)
	fmt.Fprintf(w, "Auto-classified: %d\n", s.AutoClassified)
	if out.AutoClassify != nil {
		fmt.Fprintf(w, "Pending scanned: %d, classified: %d\n", out.AutoClassify.Scanned, out.AutoClassify.Classified)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "Aborted:         %s\n", s.Error)
	}
}
