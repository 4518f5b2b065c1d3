package http

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// profitLossCSVVariants fixes the column order of the P&L export.
var profitLossCSVVariants = []struct {
	key   string
	label string
}{
	{"actual", "Actual"},
	{"budget", "Budget"},
	{"prior_year", "Prior Year"},
	{"actual_ytd", "Actual YTD"},
	{"budget_ytd", "Budget YTD"},
	{"prior_year_ytd", "Prior Year YTD"},
}

var csvPrinter = message.NewPrinter(language.English)

func formatAmount(v float64) string {
	return csvPrinter.Sprint(number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func csvAttachment(report string, filters reportFilters) string {
	return fmt.Sprintf("attachment; filename=%s_%s_%s.csv", report, filters.Company, filters.periodString())
}

func writeMetadata(s *csvStreamer, title string, filters reportFilters) error {
	rows := [][]string{
		{title},
		{"Company", filters.Company},
		{"Period End", filters.periodString()},
		{},
	}
	for _, row := range rows {
		if err := s.writeRow(row); err != nil {
			return err
		}
	}
	return nil
}

func writeProfitLossCSV(w io.Writer, vm ProfitLossVM, filters reportFilters, variants []struct{ key, label string }) error {
	streamer := newCSVStreamer(w)
	if err := writeMetadata(streamer, vm.ReportTitle, filters); err != nil {
		return err
	}
	header := []string{"Line"}
	for _, v := range variants {
		header = append(header, v.label)
	}
	if err := streamer.writeRow(header); err != nil {
		return err
	}
	for _, row := range vm.Data {
		out := make([]string, 0, len(variants)+1)
		out = append(out, row.Name)
		for _, v := range variants {
			if row.Amounts == nil {
				out = append(out, "")
				continue
			}
			out = append(out, formatAmount(row.Amounts[v.key]))
		}
		if err := streamer.writeRow(out); err != nil {
			return err
		}
	}
	return streamer.Flush()
}

func writeBalanceSheetCSV(w io.Writer, vm BalanceSheetVM, filters reportFilters) error {
	streamer := newCSVStreamer(w)
	if err := writeMetadata(streamer, vm.ReportTitle, filters); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Variant", vm.Variant}); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Line", "Amount"}); err != nil {
		return err
	}
	for _, row := range vm.Data {
		amount := ""
		if row.Amounts != nil {
			amount = formatAmount(row.Amounts[vm.Variant])
		}
		if err := streamer.writeRow([]string{row.Name, amount}); err != nil {
			return err
		}
	}
	if err := streamer.writeRow([]string{}); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Balances", fmt.Sprintf("%t", vm.Balances)}); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Difference", formatAmount(vm.Difference)}); err != nil {
		return err
	}
	return streamer.Flush()
}
