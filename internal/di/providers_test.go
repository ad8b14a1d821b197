package di

import (
	"strings"
	"testing"
)

func TestBarSchemaFoldsRawIntoBucketedTables(t *testing.T) {
	stmts := barSchema("structscan")

	joined := strings.Join(stmts, "\n")
	for _, table := range []string{"structscan.rt_bars_raw", "structscan.rt_bars_1s", "structscan.rt_bars_1m"} {
		if !strings.Contains(joined, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("schema missing table %s", table)
		}
	}

	// The read path queries rt_bars_1s/rt_bars_1m while ingestion writes
	// rt_bars_raw; a materialized view per bucket must bridge them.
	for _, target := range []string{"structscan.rt_bars_1s", "structscan.rt_bars_1m"} {
		found := false
		for _, s := range stmts {
			if strings.Contains(s, "CREATE MATERIALIZED VIEW") &&
				strings.Contains(s, "TO "+target+" ") &&
				strings.Contains(s, "FROM structscan.rt_bars_raw") {
				found = true
			}
		}
		if !found {
			t.Fatalf("no materialized view populating %s from rt_bars_raw", target)
		}
	}
}

func TestBarSchemaUsesConfiguredDatabase(t *testing.T) {
	for _, s := range barSchema("marketdata") {
		if strings.Contains(s, "structscan.") {
			t.Fatalf("statement hardcodes database: %s", s)
		}
		if !strings.Contains(s, "marketdata") {
			t.Fatalf("statement ignores configured database: %s", s)
		}
	}
}
