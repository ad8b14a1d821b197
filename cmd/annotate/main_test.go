package main

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"StructScan/internal/domain/models"
)

func TestWriteRecordsPlotColumnsAtOrigin(t *testing.T) {
	base := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	recs := make([]models.StructureRecord, 6)
	for i := range recs {
		recs[i] = models.StructureRecord{Index: i, Timestamp: base.Add(time.Duration(i) * time.Minute)}
	}
	// Swing originates at bar 2, confirms at bar 4.
	recs[4].SwingHighConfirmed = true
	recs[4].SwingHighPrice = 15
	swings := []models.SwingEvent{
		{Kind: models.SwingHigh, OriginIndex: 2, ConfirmIndex: 4, Price: 15},
		{Kind: models.SwingLow, OriginIndex: 3, ConfirmIndex: 5, Price: 9},
	}

	var buf bytes.Buffer
	if err := writeRecordsTo(&buf, recs, swings); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != len(recs)+1 {
		t.Fatalf("rows = %d, want header + %d", len(rows), len(recs))
	}

	col := func(name string) int {
		for i, h := range rows[0] {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %q missing from header %v", name, rows[0])
		return -1
	}
	ph, pl := col("plot_swing_high"), col("plot_swing_low")
	sh := col("swing_high_price")

	// Plot price sits on the origin bar, confirmed price on the confirm bar.
	if got := rows[1+2][ph]; got != "15" {
		t.Fatalf("plot_swing_high at origin = %q, want 15", got)
	}
	if got := rows[1+4][ph]; got != "" {
		t.Fatalf("plot_swing_high at confirm bar = %q, want empty", got)
	}
	if got := rows[1+4][sh]; got != "15" {
		t.Fatalf("swing_high_price at confirm bar = %q, want 15", got)
	}
	if got := rows[1+3][pl]; got != "9" {
		t.Fatalf("plot_swing_low at origin = %q, want 9", got)
	}
	for _, i := range []int{0, 1, 5} {
		if rows[1+i][ph] != "" || rows[1+i][pl] != "" {
			t.Fatalf("bar %d has stray plot values: %q %q", i, rows[1+i][ph], rows[1+i][pl])
		}
	}
}
