// Package google appends recomputed summaries to a Google spreadsheet using
// service-account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"busta/internal/core"
	"busta/internal/export"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.SummaryWriter = (*Client)(nil)

type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Summaries"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) WriteBudgetSummary(ctx context.Context, summary core.BudgetSummary) error {
	row := []any{
		time.Now().UTC().Format(time.RFC3339),
		"budget",
		summary.Budget.Label,
		units(summary.TotalPlannedCents),
		units(summary.TotalActualCents),
		units(summary.RemainingCents),
	}
	if err := c.appendRow(ctx, row); err != nil {
		return fmt.Errorf("append budget summary: %w", err)
	}

	slog.InfoContext(ctx, "Budget summary exported",
		"budget_id", summary.Budget.ID,
		"label", summary.Budget.Label,
		"spreadsheet_id", c.spreadsheetID)
	return nil
}

func (c *Client) WriteCycleSummary(ctx context.Context, summary core.TwelveWeekCycleSummary) error {
	row := []any{
		time.Now().UTC().Format(time.RFC3339),
		"cycle",
		summary.Cycle.Label,
		units(summary.TotalPlannedCents),
		units(summary.TotalActualCents),
		units(summary.TotalPlannedCents - summary.TotalActualCents),
	}
	if err := c.appendRow(ctx, row); err != nil {
		return fmt.Errorf("append cycle summary: %w", err)
	}

	slog.InfoContext(ctx, "Cycle summary exported",
		"cycle_id", summary.Cycle.ID,
		"label", summary.Cycle.Label,
		"spreadsheet_id", c.spreadsheetID)
	return nil
}

func (c *Client) appendRow(ctx context.Context, row []any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	return nil
}

// units converts cents to the major-currency value the sheet displays.
func units(v int64) float64 {
	return core.Money{Cents: v}.Units()
}
