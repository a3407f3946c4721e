package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"growdash/internal/analytics"
	"growdash/internal/parser"
	"growdash/internal/types"
)

func main() {
	file := flag.String("file", "", "path to a tradebook CSV to analyze (required)")
	csvDir := flag.String("csv", "", "directory to write a daily P&L CSV report to (optional)")
	flag.Parse()

	if *file == "" {
		fmt.Println("Error: -file is required")
		flag.Usage()
		os.Exit(1)
	}

	fileBytes, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	trades, err := parser.ParseTradebook(fileBytes)
	if err != nil {
		fmt.Printf("Error parsing tradebook: %v\n", err)
		os.Exit(1)
	}

	snapshot := analytics.Compute(trades)

	b, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding analytics: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(b))

	if *csvDir != "" {
		path, err := writeDailyPnlCSV(*csvDir, snapshot)
		if err != nil {
			fmt.Printf("Error writing CSV report: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Daily P&L CSV written:", path)
	}
}

func writeDailyPnlCSV(dir string, snapshot types.Analytics) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	outPath := filepath.Join(dir, "daily_pnl.csv")
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write([]string{"date", "pnl", "closed_lots"}); err != nil {
		return "", err
	}
	for _, point := range snapshot.DailyPnl {
		rec := []string{point.Date, fmt.Sprintf("%.2f", point.Pnl), ""}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	total := []string{"TOTAL", fmt.Sprintf("%.2f", snapshot.Summary.TotalProfitLoss), strconv.Itoa(snapshot.TradeStats.ClosedLots)}
	if err := w.Write(total); err != nil {
		return "", err
	}
	return outPath, nil
}
