// Dump the resolved product store to CSV for spreadsheet use.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"macrotrack/internal/config"
	"macrotrack/internal/logging"
	"macrotrack/internal/store"
	"macrotrack/pkg/models"
)

type productRow struct {
	URL          string  `csv:"url"`
	Name         string  `csv:"name"`
	Type         string  `csv:"type"`
	WeightGr     float64 `csv:"weight_gr"`
	RegularPrice string  `csv:"regular_price"`
	PromoUnits   string  `csv:"promo_units"`
	PromoPrice   string  `csv:"promo_price"`
	Calories     string  `csv:"calories"`
	Fat          string  `csv:"fat"`
	Carbs        string  `csv:"carbs"`
	Protein      string  `csv:"protein"`
	LastUpdate   string  `csv:"last_update"`
}

func main() {
	var (
		configPath = flag.String("config", "", "path to yaml config file")
		outPath    = flag.String("out", "data/products.csv", "output CSV path")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.S().Fatalf("config load failed: %v", err)
	}

	logger := logging.Setup(cfg.Logger)
	defer logger.Sync()

	st, err := store.New(cfg.DataDir)
	if err != nil {
		zap.S().Fatalf("store init failed: %v", err)
	}

	products := st.Products()
	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, toRow(p))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		zap.S().Fatalf("create output dir: %v", err)
	}
	f, err := os.Create(*outPath)
	if err != nil {
		zap.S().Fatalf("create output file: %v", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		zap.S().Fatalf("write csv: %v", err)
	}

	zap.S().Infow("export complete", "products", len(rows), "path", *outPath)
}

func toRow(p models.Product) productRow {
	row := productRow{
		URL:          p.URL,
		Name:         p.Name,
		Type:         string(p.Type),
		WeightGr:     p.WeightGr,
		RegularPrice: fmtFloat(p.Price.RegularPrice),
		LastUpdate:   p.LastUpdate.Format(time.RFC3339),
	}
	if promo := p.Price.Promotion; promo != nil {
		row.PromoUnits = strconv.Itoa(promo.Units)
		row.PromoPrice = strconv.FormatFloat(promo.Price, 'f', 2, 64)
	}
	if n := p.Nutrition; n != nil {
		row.Calories = fmtFloat(n.Calories)
		row.Fat = fmtFloat(n.Fat)
		row.Carbs = fmtFloat(n.Carbs)
		row.Protein = fmtFloat(n.Protein)
	}
	return row
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
