package extract

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/knieriem/odf/ods"
	excelize "github.com/xuri/excelize/v2"

	"github.com/docsage/docsage/internal/models"
)

// rowChunkSize is the row threshold above which a table is split into
// successive row-range chunks.
const rowChunkSize = 50

// TableExtractor handles Excel, CSV, ODS and JSON-as-records files. Tables
// are chunked by row ranges, never by the text splitter, and every chunk
// repeats the whole-table per-column statistics. JSON that is not a list of
// records falls back to pretty-printed text through the shared splitter.
type TableExtractor struct {
	cfg Config
}

func NewTableExtractor(cfg Config) *TableExtractor {
	return &TableExtractor{cfg: cfg.withDefaults()}
}

type sheet struct {
	name   string
	header []string
	rows   [][]string
}

func (e *TableExtractor) Extract(ctx context.Context, ref models.FileRef) ([]models.Chunk, error) {
	path, cleanup, err := ref.Stage()
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}
	defer cleanup()

	var sheets []sheet
	switch ref.Ext() {
	case ".csv":
		var s sheet
		s, err = readCSV(path)
		sheets = []sheet{s}
	case ".xlsx", ".xls":
		sheets, err = readWorkbook(path)
	case ".ods":
		sheets, err = readODS(path)
	case ".json":
		var fallback string
		sheets, fallback, err = readJSON(path)
		if err == nil && sheets == nil {
			return splitChunks(e.cfg, fallback, map[string]string{"source": ref.Name()})
		}
	default:
		err = fmt.Errorf("unexpected tabular extension %q", ref.Ext())
	}
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}

	var chunks []models.Chunk
	for _, s := range sheets {
		chunks = append(chunks, e.sheetChunks(ref, s)...)
	}
	return chunks, nil
}

// sheetChunks turns one sheet into chunks. Statistics are computed once over
// the whole sheet and repeated verbatim in every row-range chunk.
func (e *TableExtractor) sheetChunks(ref models.FileRef, s sheet) []models.Chunk {
	base := map[string]string{
		"source":       ref.Name(),
		"rows":         strconv.Itoa(len(s.rows)),
		"columns":      strconv.Itoa(len(s.header)),
		"column_names": strings.Join(s.header, ", "),
		"statistics":   encodeStatistics(s.header, s.rows),
	}
	if s.name != "" {
		base["sheet_name"] = s.name
	}

	if len(s.rows) <= rowChunkSize {
		return []models.Chunk{models.NewChunk(renderCSV(s.header, s.rows), base)}
	}

	total := (len(s.rows) + rowChunkSize - 1) / rowChunkSize
	chunks := make([]models.Chunk, 0, total)
	for i := 0; i < total; i++ {
		start := i * rowChunkSize
		end := start + rowChunkSize
		if end > len(s.rows) {
			end = len(s.rows)
		}

		md := make(map[string]string, len(base)+5)
		for k, v := range base {
			md[k] = v
		}
		md["chunk"] = strconv.Itoa(i)
		md["total_chunks"] = strconv.Itoa(total)
		md["start_row"] = strconv.Itoa(start)
		md["end_row"] = strconv.Itoa(end - 1)
		md["total_rows"] = strconv.Itoa(len(s.rows))

		chunks = append(chunks, models.NewChunk(renderCSV(s.header, s.rows[start:end]), md))
	}
	return chunks
}

func readCSV(path string) (sheet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return sheet{}, err
	}
	content := decodeText(b)

	s, err := parseCSV(content, ',')
	if err != nil || (len(s.header) == 1 && strings.Contains(s.header[0], ";")) {
		// Semicolon-delimited exports are common enough to retry.
		if retried, retryErr := parseCSV(content, ';'); retryErr == nil && len(retried.header) > 1 {
			return retried, nil
		}
	}
	return s, err
}

func parseCSV(content string, comma rune) (sheet, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return sheet{}, err
	}
	if len(records) == 0 {
		return sheet{}, errors.New("empty table")
	}
	return newSheet("", records), nil
}

func readWorkbook(path string) ([]sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("not a readable workbook: %w", err)
	}
	defer f.Close()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}
		sheets = append(sheets, newSheet(name, rows))
	}
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no data")
	}
	return sheets, nil
}

func readODS(path string) ([]sheet, error) {
	f, err := ods.Open(path)
	if err != nil {
		return nil, fmt.Errorf("not a readable spreadsheet: %w", err)
	}
	defer f.Close()

	var doc ods.Doc
	if err := f.ParseContent(&doc); err != nil {
		return nil, err
	}

	var sheets []sheet
	for _, table := range doc.Table {
		rows := table.Strings()
		if len(rows) == 0 {
			continue
		}
		sheets = append(sheets, newSheet(table.Name, rows))
	}
	if len(sheets) == 0 {
		return nil, errors.New("spreadsheet has no data")
	}
	return sheets, nil
}

// readJSON returns a sheet set for a list of uniform records, or a
// pretty-printed fallback text for any other JSON shape.
func readJSON(path string) ([]sheet, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, "", fmt.Errorf("invalid JSON: %w", err)
	}

	list, ok := data.([]any)
	if ok && len(list) > 0 {
		records := make([]map[string]any, 0, len(list))
		uniform := true
		for _, item := range list {
			rec, ok := item.(map[string]any)
			if !ok {
				uniform = false
				break
			}
			records = append(records, rec)
		}
		if uniform {
			return []sheet{recordsToSheet(records)}, "", nil
		}
	}

	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, "", err
	}
	return nil, string(pretty), nil
}

func recordsToSheet(records []map[string]any) sheet {
	keySet := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			keySet[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = formatJSONValue(rec[k])
		}
		rows = append(rows, row)
	}
	return sheet{header: header, rows: rows}
}

func formatJSONValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// newSheet splits raw rows into header and data, padding short rows so every
// row has a cell per column.
func newSheet(name string, records [][]string) sheet {
	header := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rec)
			rec = padded
		}
		rows = append(rows, rec)
	}
	return sheet{name: name, header: header, rows: rows}
}

func renderCSV(header []string, rows [][]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if len(header) > 0 {
		w.Write(header)
	}
	w.WriteAll(rows)
	w.Flush()
	return sb.String()
}
