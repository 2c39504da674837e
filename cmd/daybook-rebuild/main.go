package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/models"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
)

func main() {
	businessID := flag.String("business-id", "", "Rebuild only one business. If empty, rebuilds all businesses with transactions.")
	from := flag.String("from", "", "Start date (YYYY-MM-DD). Defaults to 90 days ago.")
	to := flag.String("to", "", "End date (YYYY-MM-DD). Defaults to today.")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	// Ensure schema is up-to-date (creates daily_summaries if missing).
	models.MigrateTable()

	now := time.Now()
	start := now.AddDate(0, 0, -90)
	if s := strings.TrimSpace(*from); s != "" {
		d, ok := utils.ParseDate(s)
		if !ok {
			fmt.Fprintf(os.Stderr, "invalid -from date: %s\n", s)
			os.Exit(1)
		}
		start = d
	}
	end := now
	if s := strings.TrimSpace(*to); s != "" {
		d, ok := utils.ParseDate(s)
		if !ok {
			fmt.Fprintf(os.Stderr, "invalid -to date: %s\n", s)
			os.Exit(1)
		}
		end = d
	}

	var businessIds []string
	if s := strings.TrimSpace(*businessID); s != "" {
		businessIds = []string{s}
	} else {
		if err := db.WithContext(ctx).Model(&models.BusinessTransaction{}).
			Distinct("business_id").Pluck("business_id", &businessIds).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to list businesses: %v\n", err)
			os.Exit(1)
		}
	}
	if len(businessIds) == 0 {
		fmt.Fprintln(os.Stderr, "no businesses found to rebuild")
		return
	}

	for _, bid := range businessIds {
		fmt.Printf("Rebuilding daily_summaries business=%s from=%s to=%s\n",
			bid, start.Format("2006-01-02"), end.Format("2006-01-02"))

		count, err := models.RebuildDailySummaries(ctx, bid, start, end)
		if err != nil {
			fmt.Fprintf(os.Stderr, "business %s rebuild failed: %v\n", bid, err)
			continue
		}
		fmt.Printf("business %s: %d daily rows written\n", bid, count)
	}

	fmt.Println("Rebuild complete")
}
