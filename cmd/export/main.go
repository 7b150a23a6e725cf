// Command export writes a learner's pathway progress to an xlsx workbook
// for practice managers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/surgeryos/dailydose/internal/catalog"
	"github.com/surgeryos/dailydose/internal/pathway"
	"github.com/surgeryos/dailydose/internal/platform/config"
	"github.com/surgeryos/dailydose/internal/platform/database"
	"github.com/surgeryos/dailydose/internal/session"
)

func main() {
	userID := flag.String("user", "", "learner user id (required)")
	out := flag.String("out", "pathway-progress.xlsx", "output workbook path")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: export -user <id> [-out <path>]")
		os.Exit(2)
	}

	if err := run(*userID, *out); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(userID, out string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	cards, err := catalog.NewLoader(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	store, err := session.NewPostgresStore(db.Pool)
	if err != nil {
		return err
	}

	svc := session.NewService(session.ServiceConfig{Catalog: cards, Store: store})
	units, err := svc.UnitProgress(userID)
	if err != nil {
		return fmt.Errorf("reading progress: %w", err)
	}

	if err := writeWorkbook(out, userID, units); err != nil {
		return err
	}
	slog.Info("workbook written", "path", out, "units", len(units))
	return nil
}

// writeWorkbook renders one row per unit plus a per-level summary sheet.
func writeWorkbook(path, userID string, units []pathway.UnitProgress) error {
	f := excelize.NewFile()
	defer f.Close()

	const unitSheet = "Units"
	if err := f.SetSheetName("Sheet1", unitSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	headers := []string{"Unit", "Level", "Order", "Sessions", "Correct", "Questions", "Accuracy", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(unitSheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for row, u := range units {
		values := []any{
			u.UnitID,
			string(u.Level),
			u.Order,
			u.SessionsCompleted,
			u.CorrectCount,
			u.TotalQuestions,
			fmt.Sprintf("%.0f%%", u.Accuracy()*100),
			string(u.Status()),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(unitSheet, cell, v); err != nil {
				return fmt.Errorf("writing unit row: %w", err)
			}
		}
	}

	const levelSheet = "Levels"
	if _, err := f.NewSheet(levelSheet); err != nil {
		return fmt.Errorf("creating level sheet: %w", err)
	}
	levelHeaders := []string{"Level", "Units", "Secure", "Secure %", "RAG"}
	for i, h := range levelHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(levelSheet, cell, h); err != nil {
			return fmt.Errorf("writing level header: %w", err)
		}
	}
	for row, s := range pathway.SummarizeLevels(units) {
		values := []any{
			string(s.Level),
			s.Units,
			s.Secure,
			s.SecurePercentage,
			string(s.RAG),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(levelSheet, cell, v); err != nil {
				return fmt.Errorf("writing level row: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook for %s: %w", userID, err)
	}
	return nil
}
