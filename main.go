package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bnbtrack/config"
	"bnbtrack/httputil"
	"bnbtrack/logging"
	"bnbtrack/models"
	"bnbtrack/scheduler"
	"bnbtrack/scraper"
	"bnbtrack/services"
	"bnbtrack/storage"
)

var (
	addURL     = flag.String("add", "", "Booking URL to acquire and track")
	dailyCost  = flag.Float64("daily", 0, "Daily cost for -add or -update-cost")
	miscCost   = flag.Float64("misc", 0, "One-off costs for -add or -update-cost")
	getID      = flag.Int64("get", 0, "Print the stored listing with this id")
	location   = flag.String("location", "", "List stored listings matching a location")
	listAll    = flag.Bool("list", false, "List all stored listings")
	updateID   = flag.Int64("update-cost", 0, "Recompute the trip cost of this listing from -daily/-misc")
	notesID    = flag.Int64("notes", 0, "Set the notes of this listing to -text")
	notesText  = flag.String("text", "", "Notes text for -notes")
	deleteID   = flag.Int64("delete", 0, "Delete the stored listing with this id")
	refreshID  = flag.Int64("refresh", 0, "Refetch this listing, keeping its cost inputs and notes")
	refreshAll = flag.Bool("refresh-all", false, "Refetch every stored listing once and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	clients := httputil.NewClients(cfg.ProxyURL, time.Duration(cfg.Fetcher.TimeoutMS)*time.Millisecond)
	fetcher := scraper.NewFetcher(&cfg.Fetcher, clients)
	if bf, ok := fetcher.(*scraper.BrowserFetcher); ok {
		defer bf.Close()
	}

	archive, err := openArchive(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up payload archive: %v", err)
	}

	listings := services.NewListingService(store, fetcher, archive, cfg.Fetcher.Currency)

	if ranOneShot(ctx, listings) {
		return
	}

	// Daemon mode: keep the stored listings fresh on a schedule.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(listings, cfg.RefreshCron)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	n, err := listings.CountListings(ctx)
	if err != nil {
		log.Fatalf("Failed to count listings: %v", err)
	}
	log.Printf("Tracking %d listings (fetcher: %s). Press Ctrl+C to stop.", n, fetcher.Name())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()
	sched.Stop()
}

// ranOneShot dispatches the single-action flags. It reports whether one of
// them ran so main can skip daemon mode.
func ranOneShot(ctx context.Context, listings *services.ListingService) bool {
	switch {
	case *addURL != "":
		listing, err := listings.AddListing(ctx, *addURL, *dailyCost, *miscCost)
		if err != nil {
			log.Fatalf("Failed to add listing: %v", err)
		}
		log.Printf("Added listing %d (%s), %d nights, total cost %.2f",
			listing.ID, listing.Location, listing.Duration, listing.Cost)

	case *getID != 0:
		dump, err := listings.DumpListing(ctx, *getID)
		if err != nil {
			log.Fatalf("Failed to get listing %d: %v", *getID, err)
		}
		fmt.Println(string(dump))

	case *location != "":
		found, err := listings.GetListingsByLocation(ctx, *location)
		if err != nil {
			log.Fatalf("Failed to search listings: %v", err)
		}
		printSummary(found)

	case *listAll:
		all, err := listings.AllListings(ctx)
		if err != nil {
			log.Fatalf("Failed to list listings: %v", err)
		}
		printSummary(all)

	case *updateID != 0:
		listing, err := listings.UpdateListingCost(ctx, *updateID, *dailyCost, *miscCost)
		if err != nil {
			log.Fatalf("Failed to update cost for listing %d: %v", *updateID, err)
		}
		log.Printf("Listing %d: daily %.2f + misc %.2f over %d nights = %.2f",
			listing.ID, listing.DailyCost, listing.MiscCost, listing.Duration, listing.Cost)

	case *notesID != 0:
		if err := listings.UpdateNotes(ctx, *notesID, *notesText); err != nil {
			log.Fatalf("Failed to update notes for listing %d: %v", *notesID, err)
		}
		log.Printf("Updated notes for listing %d", *notesID)

	case *deleteID != 0:
		if err := listings.DeleteListing(ctx, *deleteID); err != nil {
			log.Fatalf("Failed to delete listing %d: %v", *deleteID, err)
		}
		log.Printf("Deleted listing %d", *deleteID)

	case *refreshID != 0:
		listing, err := listings.RefreshListing(ctx, *refreshID)
		if err != nil {
			log.Fatalf("Failed to refresh listing %d: %v", *refreshID, err)
		}
		log.Printf("Refreshed listing %d (%s)", listing.ID, listing.Location)

	case *refreshAll:
		listings.RefreshAll(ctx)

	default:
		return false
	}
	return true
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.DatabaseURL != "" {
		log.Printf("Using Postgres: %s", maskConnectionString(cfg.DatabaseURL))
		return storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
	log.Printf("Using SQLite database: %s", cfg.DBPath)
	return storage.NewSQLiteStore(cfg.DBPath)
}

func openArchive(ctx context.Context, cfg *config.Config) (storage.Archiver, error) {
	switch {
	case cfg.Archive.Bucket != "":
		log.Printf("Archiving raw payloads to s3 bucket %s", cfg.Archive.Bucket)
		return storage.NewS3Archive(ctx, storage.S3Config{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
	case cfg.Archive.Dir != "":
		log.Printf("Archiving raw payloads to %s", cfg.Archive.Dir)
		return storage.NewLocalArchive(cfg.Archive.Dir)
	default:
		return nil, nil
	}
}

func printSummary(listings []models.Listing) {
	if len(listings) == 0 {
		fmt.Println("No listings found")
		return
	}
	for _, l := range listings {
		fmt.Printf("%d\t%-30s\t%d nights\t%.2f\t%s\n",
			l.ID, l.Location, l.Duration, l.Cost, l.URL)
	}
}

// maskConnectionString masks the password in a connection string for logging.
func maskConnectionString(connStr string) string {
	schemeEnd := strings.Index(connStr, "://")
	if schemeEnd < 0 {
		return connStr
	}
	rest := connStr[schemeEnd+3:]
	at := strings.Index(rest, "@")
	colon := strings.Index(rest, ":")
	if colon < 0 || at < colon {
		return connStr
	}
	return connStr[:schemeEnd+3] + rest[:colon+1] + "****" + rest[at:]
}
