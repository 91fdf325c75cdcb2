package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/feldgrau-labs/chesstrack/backend/internal/activities"
	"github.com/feldgrau-labs/chesstrack/backend/internal/mistakes"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestImporter(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:chesstrack_importer_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&activities.Activity{}, &mistakes.Mistake{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	activityService, err := activities.NewService(activities.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build activity service: %v", err)
	}
	mistakeService, err := mistakes.NewService(mistakes.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build mistake service: %v", err)
	}

	service, err := NewService(ServiceConfig{Activities: activityService, Mistakes: mistakeService})
	if err != nil {
		t.Fatalf("failed to build importer: %v", err)
	}
	return service, db
}

func TestImportActivitiesSkipsBadRowsAndContinues(t *testing.T) {
	service, db := newTestImporter(t)

	csvData := strings.Join([]string{
		",,,,,",
		"Date,Week,Category,Minutes,Details,Hours",
		"05/01/2026,2,Tactics,30,Puzzle rush,0.5",
		"not-a-date,2,Tactics,30,,0.5",
		"10/01/2026,2.0,Openings,45,,0.75",
		"",
	}, "\n")

	result, err := service.ImportActivities(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}
	if result.Inserted != 2 {
		t.Fatalf("expected 2 inserted rows, got %d", result.Inserted)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", result.Skipped)
	}

	var rows []activities.Activity
	if err := db.Order("date ASC").Find(&rows).Error; err != nil {
		t.Fatalf("failed to load rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 stored rows, got %d", len(rows))
	}
	if rows[0].Date != "2026-01-05" || rows[1].Date != "2026-01-10" {
		t.Fatalf("expected ISO dates, got %q and %q", rows[0].Date, rows[1].Date)
	}
	if rows[0].Details == nil || *rows[0].Details != "Puzzle rush" {
		t.Fatalf("expected details to survive the import, got %#v", rows[0].Details)
	}
	if rows[1].Week != 2 {
		t.Fatalf("expected spreadsheet float week to normalize to 2, got %d", rows[1].Week)
	}
}

func TestImportMistakesMapsSpreadsheetHeaders(t *testing.T) {
	service, db := newTestImporter(t)

	csvData := strings.Join([]string{
		"Date Played,Game Type,Time Control,Opponent Name,Opponent Rating,Result,Move number,Mistake Category,“Got It Wrong” vs “Didn’t See It”,One-sentence fix,Training prescription,URL or OTB,Annotations (Check)",
		"05/01/2026,Online,10+0,Alice,1500,loss,23,Tactics,Got It Wrong,Look wider,Puzzle set 4,https://example.com/g/1,",
		"not-a-date,Online,10+0,Bob,1400,win,,,,,,,",
		"06/01/2026,OTB,90+30,Carol,~1800?,draw,30,Endgame,Didn’t See It,Count tempi,Endgame drills,OTB,",
		"",
	}, "\n")

	result, err := service.ImportMistakes(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}
	if result.Inserted != 2 || result.Skipped != 1 {
		t.Fatalf("expected 2 inserted and 1 skipped, got %+v", result)
	}

	var rows []mistakes.Mistake
	if err := db.Order("date ASC").Find(&rows).Error; err != nil {
		t.Fatalf("failed to load rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 stored rows, got %d", len(rows))
	}

	first := rows[0]
	if first.Date != "2026-01-05" {
		t.Fatalf("expected ISO date, got %q", first.Date)
	}
	if first.Cause == nil || *first.Cause != "Got It Wrong" {
		t.Fatalf("expected the curly-quoted column to map to cause, got %#v", first.Cause)
	}
	if first.OpponentRating == nil || *first.OpponentRating != 1500 {
		t.Fatalf("expected rating 1500, got %#v", first.OpponentRating)
	}

	second := rows[1]
	if second.OpponentRating != nil {
		t.Fatalf("expected the non-numeric rating to drop to nil, got %#v", second.OpponentRating)
	}
	if second.MistakeCategory == nil || *second.MistakeCategory != "Endgame" {
		t.Fatalf("expected category Endgame, got %#v", second.MistakeCategory)
	}
	if second.Annotations != nil {
		t.Fatalf("expected empty annotations to stay nil, got %#v", second.Annotations)
	}
}

func TestImportMistakesRequiresDateColumn(t *testing.T) {
	service, _ := newTestImporter(t)

	csvData := "Game Type,Result\nOnline,loss\n"
	if _, err := service.ImportMistakes(context.Background(), strings.NewReader(csvData)); err == nil {
		t.Fatalf("expected an error for a csv without the date column")
	}
}
