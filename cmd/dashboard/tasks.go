package main

import (
	"errors"

	"agency-dashboard/internal/search"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Elasticsearch prospect index from the store",
	RunE:  runReindex,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Email the 30-day analytics report to every client that wants one",
	RunE:  runReport,
}

var freshIndex bool

func init() {
	reindexCmd.Flags().BoolVar(&freshIndex, "fresh", false, "drop and recreate the index before reindexing")
	rootCmd.AddCommand(reindexCmd, reportCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Elasticsearch.Enabled {
		return errors.New("reindex requires database.elasticsearch.enabled")
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if freshIndex {
		if err := a.es.DropIndex(cmd.Context()); err != nil {
			return err
		}
		if err := a.index.EnsureIndex(cmd.Context()); err != nil {
			return err
		}
		a.log.Info("Recreated prospect index", map[string]interface{}{"index": a.es.Index})
	}

	n, err := search.Reindex(cmd.Context(), a.store.Prospects, a.index)
	if err != nil {
		return err
	}
	a.log.Info("Reindexed prospects", map[string]interface{}{"count": n})
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Integrations.AWS.SES.Enabled {
		return errors.New("report requires integrations.aws.ses.enabled")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	clients, err := a.store.Clients.GetAll(ctx)
	if err != nil {
		return err
	}
	sent, failed := 0, 0
	for _, c := range clients {
		ok, err := a.notifier.SendReport(ctx, c.ID)
		if err != nil {
			failed++
			a.log.Error("Report failed", map[string]interface{}{"clientId": c.ID, "error": err})
			continue
		}
		if ok {
			sent++
		}
	}
	a.log.Info("Reports sent", map[string]interface{}{"sent": sent, "failed": failed, "clients": len(clients)})
	if failed > 0 {
		return errors.New("some reports could not be sent")
	}
	return nil
}
