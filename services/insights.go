package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"wishlist-tracker/models"
	"wishlist-tracker/utils"
)

// HistogramBuckets is the number of equal-width price buckets.
const HistogramBuckets = 10

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the report over the current snapshot. prices is the
// captured price history feeding the histogram.
func (s *InsightService) Generate(snapshot []models.SnapshotRow, prices []string) *models.InsightReport {
	report := &models.InsightReport{
		ItemsByList: make(map[string]int),
		Histogram:   Histogram(prices, HistogramBuckets),
	}

	if len(snapshot) == 0 {
		return report
	}

	report.TrackedItems = len(snapshot)

	var rated []*models.SnapshotRow
	var total float64

	for i := range snapshot {
		row := &snapshot[i]
		if row.ListName != "" {
			report.ItemsByList[row.ListName]++
		}
		if row.Rating.Valid {
			rated = append(rated, row)
		}

		price, ok := ParsePrice(row.Price.OrElse(""))
		if !ok {
			continue
		}
		if report.PricedItems == 0 || price < report.MinPrice {
			report.MinPrice = price
			report.Cheapest = row
		}
		if report.PricedItems == 0 || price > report.MaxPrice {
			report.MaxPrice = price
			report.MostExpensive = row
		}
		total += price
		report.PricedItems++
	}

	if report.PricedItems > 0 {
		report.AveragePrice = round2(total / float64(report.PricedItems))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	// Top 5 by rating, compared on a common scale
	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].Rating.Value.Normalized() > rated[j].Rating.Value.Normalized()
	})
	if len(rated) > 5 {
		report.TopRated = rated[:5]
	} else {
		report.TopRated = rated
	}

	s.logger.Debug("[insights] %d tracked, %d priced, %d rated, %d historical prices",
		report.TrackedItems, report.PricedItems, len(rated), len(prices))
	return report
}

// Histogram spreads the parseable prices over n equal-width buckets between
// the lowest and highest value. Unparseable prices are ignored.
func Histogram(prices []string, n int) []models.PriceBucket {
	var values []float64
	for _, p := range prices {
		if v, ok := ParsePrice(p); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 || n < 1 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return []models.PriceBucket{{Low: lo, High: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(n)
	buckets := make([]models.PriceBucket, n)
	for i := range buckets {
		buckets[i].Low = lo + float64(i)*width
		buckets[i].High = lo + float64(i+1)*width
	}
	buckets[n-1].High = hi

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= n {
			// the maximum belongs to the last bucket
			idx = n - 1
		}
		buckets[idx].Count++
	}
	return buckets
}

func (s *InsightService) Print(r *models.InsightReport, w io.Writer) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 WISH LIST INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Tracked items          : \033[1m%d\033[0m\n", r.TrackedItems)
	fmt.Fprintf(w, "  Items with a price     : \033[1m%d\033[0m\n", r.PricedItems)
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Current Prices\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedItems > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.Cheapest != nil && r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Cheapest / Most Expensive\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %-40s \033[1;32m%s\033[0m\n", truncate(r.Cheapest.Name, 38), r.Cheapest.Price)
		fmt.Fprintf(w, "  %-40s \033[1;31m%s\033[0m\n", truncate(r.MostExpensive.Name, 38), r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	// ── TOP 5 HIGHEST RATED ──────────────────────────────────────────────
	fmt.Fprintf(w, "\033[1;33m  Top 5 Highest Rated Items\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Fprintf(w, "  No rated items found\n")
	} else {
		for i, row := range r.TopRated {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%s ★\033[0m (%d reviews)\n",
				i+1, truncate(row.Name, 38), row.Rating, row.ReviewCount)
		}
	}
	fmt.Fprintln(w)

	// Items by List
	fmt.Fprintf(w, "\033[1;33m  Items by List\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ItemsByList) == 0 {
		fmt.Fprintf(w, "  No list data\n")
	} else {
		type listCount struct {
			name  string
			count int
		}
		var lists []listCount
		for name, cnt := range r.ItemsByList {
			lists = append(lists, listCount{name, cnt})
		}
		sort.Slice(lists, func(i, j int) bool {
			if lists[i].count != lists[j].count {
				return lists[i].count > lists[j].count
			}
			return lists[i].name < lists[j].name
		})
		for _, lc := range lists {
			bar := strings.Repeat("█", lc.count)
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(lc.name, 28), bar, lc.count)
		}
	}
	fmt.Fprintln(w)

	// Price histogram
	fmt.Fprintf(w, "\033[1;33m  Price History Distribution\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Histogram) == 0 {
		fmt.Fprintf(w, "  No price history\n")
	} else {
		for _, b := range r.Histogram {
			label := fmt.Sprintf("$%.2f - $%.2f", b.Low, b.High)
			fmt.Fprintf(w, "  %-24s %s (%d)\n", label, strings.Repeat("█", b.Count), b.Count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
