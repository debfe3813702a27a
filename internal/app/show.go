package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// ShowWatches prints active watches, newest first.
func (a *App) ShowWatches(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	watches, err := store.ListActiveWatches(ctx)
	if err != nil {
		return err
	}
	if len(watches) == 0 {
		fmt.Fprintln(os.Stdout, "no active watches")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tFrom\tDestinations\tDates\tEvery\tNon-direct\tFilter\tCreated (UTC)")

	for _, watch := range watches {
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s → %s\t%dh\t%t\t%s\t%s\n",
			watch.ID,
			watch.Source,
			strings.Join(watch.Destinations, ","),
			watch.DateStart,
			watch.DateEnd,
			watch.CheckInterval,
			watch.AllowNonDirect,
			sanitizeInline(watch.CustomFilter),
			watch.CreatedAt.UTC().Format(time.RFC3339),
		)
	}

	writer.Flush()
	return nil
}

// ShowResults prints the most recent observations across all watches.
func (a *App) ShowResults(ctx context.Context, opts ResultsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	limit := a.Config.ResolveResultsLimit(opts.Limit)
	results, err := store.ListRecentObservations(ctx, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "no observations found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Checked (UTC)\tWatch\tDestination\tDate\tPrice\tWatch destinations")

	for _, rec := range results {
		fmt.Fprintf(
			writer,
			"%s\t%d\t%s\t%s\t$%s\t%s\n",
			rec.CheckedAt.UTC().Format(time.RFC3339),
			rec.WatchID,
			rec.Destination,
			rec.Date,
			rec.Price.StringFixed(0),
			strings.Join(rec.WatchDestinations, ","),
		)
	}

	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
