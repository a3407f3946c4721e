package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"growdash/internal/auditlog"
	"growdash/internal/broker"
	"growdash/internal/logger"
	"growdash/internal/parser"
	"growdash/internal/storage"
	"growdash/internal/store"
	"growdash/internal/types"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	file := flag.String("file", "", "path to a tradebook CSV to import")
	source := flag.String("source", "", "pull trades from a broker instead of a file (kite)")
	flag.Parse()

	if *file == "" && *source == "" {
		fmt.Println("Error: one of -file or -source is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var trades []types.Trade
	sourceName := "csv"
	switch {
	case *file != "":
		fileBytes, err := os.ReadFile(*file)
		if err != nil {
			fmt.Printf("Error reading file: %v\n", err)
			os.Exit(1)
		}
		trades, err = parser.ParseTradebook(fileBytes)
		if err != nil {
			fmt.Printf("Error parsing tradebook: %v\n", err)
			os.Exit(1)
		}
	case *source == "kite":
		sourceName = "kite"
		kite, err := broker.NewKite(broker.Params{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:    cfg.Broker.Exchange,
		})
		if err != nil {
			fmt.Printf("Error creating broker client: %v\n", err)
			os.Exit(1)
		}
		trades, err = kite.ImportTrades(ctx)
		if err != nil {
			fmt.Printf("Error fetching trades from broker: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unknown source: %s\n", *source)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}

	inserted, err := repo.SaveTrades(ctx, trades)
	if err != nil {
		fmt.Printf("Error storing trades: %v\n", err)
		os.Exit(1)
	}

	summary := types.UploadSummary{
		TotalRows:    len(trades),
		ImportedRows: inserted,
		SkippedRows:  len(trades) - inserted,
	}

	logger.Upload(ctx, sourceName, summary.TotalRows, summary.ImportedRows, summary.SkippedRows, "file", *file)
	_ = auditlog.Append(auditlog.Entry{
		Source:       sourceName,
		Filename:     *file,
		TotalRows:    summary.TotalRows,
		ImportedRows: summary.ImportedRows,
		SkippedRows:  summary.SkippedRows,
	})

	b, _ := json.Marshal(summary)
	fmt.Println(string(b))
}
