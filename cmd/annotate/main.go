package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"StructScan/internal/domain/models"
	"StructScan/internal/features"
	"StructScan/internal/structure"
)

// annotate reads OHLCV bars from a CSV file, runs the structure pipeline
// offline and writes the fused per-bar annotations back out as CSV.
//
// Input columns: timestamp,open,high,low,close,volume
// (timestamp is unix seconds or RFC3339; header row optional).
func main() {
	in := flag.String("in", "", "input CSV path (default stdin)")
	out := flag.String("out", "", "output CSV path (default stdout)")
	symbol := flag.String("symbol", "OFFLINE", "symbol tag for the series")
	window := flag.Int("window", structure.DefaultSwingWindow, "swing detection window")
	tol := flag.Float64("tol", structure.DefaultPriceTolerancePct, "double top/bottom price tolerance")
	climax := flag.Float64("climax", structure.DefaultClimaxATRMultiplier, "climax ATR multiplier")
	run := flag.Int("run", structure.DefaultConsecutiveRun, "consecutive reversal run length")
	atr := flag.Int("atr", features.DefaultATRPeriod, "ATR period")
	flag.Parse()

	bars, err := readBars(*in, *symbol)
	if err != nil {
		log.Fatalf("read bars: %v", err)
	}
	bars = features.WithATR(bars, *atr)

	p := structure.DefaultParams()
	p.SwingWindow = *window
	p.PriceTolerancePct = *tol
	p.ClimaxATRMultiplier = *climax
	p.ConsecutiveRun = *run

	res, err := structure.Annotate(bars, p)
	if err != nil {
		log.Fatalf("annotate: %v", err)
	}

	if err := writeRecords(*out, res.Records, res.Swings); err != nil {
		log.Fatalf("write records: %v", err)
	}
	fmt.Fprintf(os.Stderr, "annotated %d bars: %d swings, %d reversals\n",
		len(res.Records), len(res.Swings), len(res.Reversals))
}

func readBars(path, symbol string) ([]models.Bar, error) {
	var rd io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rd = f
	}

	r := csv.NewReader(rd)
	r.FieldsPerRecord = -1
	var bars []models.Bar
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("row %d: want 6 columns, got %d", len(bars)+1, len(rec))
		}
		ts, err := parseTime(rec[0])
		if err != nil {
			if len(bars) == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("row %d: %w", len(bars)+1, err)
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", len(bars)+1, i+2, err)
			}
			vals[i] = v
		}
		bars = append(bars, models.Bar{
			Index:     len(bars),
			Timestamp: ts,
			Symbol:    symbol,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return bars, nil
}

func parseTime(s string) (time.Time, error) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec > 1e11 { // ms
			sec = sec / 1000
		}
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

func writeRecords(path string, recs []models.StructureRecord, swings []models.SwingEvent) error {
	var wr io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		wr = f
	}
	return writeRecordsTo(wr, recs, swings)
}

func writeRecordsTo(wr io.Writer, recs []models.StructureRecord, swings []models.SwingEvent) error {
	plotHigh, plotLow := plotSwings(len(recs), swings)

	w := csv.NewWriter(wr)
	defer w.Flush()

	header := []string{
		"index", "timestamp",
		"swing_high_confirmed", "swing_low_confirmed", "swing_high_price", "swing_low_price", "swing_label",
		"plot_swing_high", "plot_swing_low",
		"major_high", "major_low", "bias",
		"is_climax_top", "is_climax_bottom", "is_consecutive_top", "is_consecutive_bottom",
		"adjusted_major_high", "adjusted_major_low", "label_trend",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i, r := range recs {
		row := []string{
			strconv.Itoa(r.Index),
			strconv.FormatInt(r.Timestamp.Unix(), 10),
			strconv.FormatBool(r.SwingHighConfirmed),
			strconv.FormatBool(r.SwingLowConfirmed),
			fmtPrice(r.SwingHighPrice),
			fmtPrice(r.SwingLowPrice),
			string(r.SwingLabel),
			fmtPrice(plotHigh[i]),
			fmtPrice(plotLow[i]),
			fmtPrice(r.MajorHigh),
			fmtPrice(r.MajorLow),
			r.Bias.String(),
			strconv.FormatBool(r.IsClimaxTop),
			strconv.FormatBool(r.IsClimaxBottom),
			strconv.FormatBool(r.IsConsecutiveTop),
			strconv.FormatBool(r.IsConsecutiveBottom),
			fmtPrice(r.AdjustedMajorHigh),
			fmtPrice(r.AdjustedMajorLow),
			r.LabelTrend.String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// plotSwings shifts each confirmed swing price back to its origin index,
// the charting-friendly view of the lag-confirmed events. Non-swing bars
// stay NaN and render as empty cells.
func plotSwings(n int, swings []models.SwingEvent) (highs, lows []float64) {
	highs = make([]float64, n)
	lows = make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = math.NaN()
		lows[i] = math.NaN()
	}
	for _, e := range swings {
		if e.OriginIndex < 0 || e.OriginIndex >= n {
			continue
		}
		if e.Kind == models.SwingHigh {
			highs[e.OriginIndex] = e.Price
		} else {
			lows[e.OriginIndex] = e.Price
		}
	}
	return highs, lows
}

func fmtPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
