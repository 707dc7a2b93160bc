package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/planstack/pkg/colors"
	"github.com/harrisonrobin/planstack/pkg/config"
	"github.com/harrisonrobin/planstack/pkg/google"
	"github.com/harrisonrobin/planstack/pkg/identity"
	"github.com/harrisonrobin/planstack/pkg/markdown"
	"github.com/harrisonrobin/planstack/pkg/reconcile"
	"github.com/harrisonrobin/planstack/pkg/store"
)

const (
	storeFile  = "sync.json"
	colorsFile = "document_colors.json"
)

var (
	syncDryRun   bool
	syncCalendar string

	syncCmd = &cobra.Command{
		Use:   "sync <file>...",
		Short: "Reconcile one or more documents with the calendar",
		Long: `Parses each document for checkbox todos with duration estimates and brings
the configured calendar in line: new todos become events stacked back to
back from the configured start of day, completed todos get their event
annotated, and todos that vanished from the document get their event
deleted.

Each document is reconciled independently and starts its own stack at the
configured start time.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSync,
	}
)

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "print planned actions without touching the calendar or the store")
	syncCmd.Flags().StringVar(&syncCalendar, "calendar", "", "calendar id to sync into (overrides config)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	calendarID := cfg.CalendarID
	if syncCalendar != "" {
		calendarID = syncCalendar
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	st, err := store.Open(filepath.Join(dir, storeFile))
	if err != nil {
		// The pass still runs on the empty store it got back: events resync
		// as if new, so duplicates are possible but nothing is lost.
		log.Warn().Err(err).Msg("sync store unreadable, starting over with an empty one")
	}

	var gw reconcile.Gateway
	var client *google.CalendarClient
	var colorCache *colors.Cache
	if !syncDryRun {
		client, err = google.New(cmd.Context(), calendarID, cfg.TimeZone)
		if err != nil {
			return err
		}
		gw = client

		colorCache, err = colors.Open(filepath.Join(dir, colorsFile))
		if err != nil {
			log.Warn().Err(err).Msg("color cache unreadable, events keep the calendar's default color")
		}
	}
	syncer := reconcile.New(st, gw)
	syncer.DryRun = syncDryRun

	cursor := cfg.StartOfDay(time.Now())

	var skipped, failed int
	for _, arg := range args {
		document := arg
		if abs, err := filepath.Abs(arg); err == nil {
			document = abs
		}

		todos, err := markdown.ParseFile(document)
		if err != nil {
			log.Error().Err(err).Str("document", arg).Msg("skipping unreadable document")
			skipped++
			continue
		}
		identity.Assign(document, todos)
		if client != nil && colorCache != nil {
			client.SetEventColor(colorCache.ColorID(document))
		}

		res, err := syncer.SyncDocument(document, todos, cursor)
		if err != nil {
			return err
		}
		failed += res.Failed

		if syncDryRun {
			printPlan(arg, res.Actions)
			continue
		}
		fmt.Printf("%s: %d created, %d updated, %d completed, %d deleted, %d unchanged\n",
			arg, res.Created, res.Updated, res.Completed, res.Deleted, res.Unchanged)
	}

	if colorCache != nil {
		if err := colorCache.Save(); err != nil {
			log.Warn().Err(err).Msg("could not save color cache")
		}
	}

	if skipped > 0 || failed > 0 {
		return errors.Errorf("%d documents skipped, %d actions failed", skipped, failed)
	}
	return nil
}

func printPlan(document string, actions []reconcile.Action) {
	if len(actions) == 0 {
		fmt.Printf("%s: nothing to do\n", document)
		return
	}
	fmt.Printf("%s:\n", document)
	for _, a := range actions {
		switch a.Kind {
		case reconcile.ActionCreate:
			fmt.Printf("  create   %q at %s (%dm)\n", a.Title, a.Start.Format("2006-01-02 15:04"), a.Minutes)
		case reconcile.ActionUpdate:
			fmt.Printf("  update   %q at %s (%dm)\n", a.Title, a.Start.Format("2006-01-02 15:04"), a.Minutes)
		case reconcile.ActionComplete:
			fmt.Printf("  complete %q\n", a.Title)
		case reconcile.ActionDelete:
			fmt.Printf("  delete   %q\n", a.Title)
		}
	}
}
