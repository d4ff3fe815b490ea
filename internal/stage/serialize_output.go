package stage

import (
	"context"
	"fmt"

	"github.com/flarebyte/shiftlog/internal/serialize"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func baseName(meta *Meta) string {
	if meta != nil && meta.Filename != "" {
		return meta.Filename
	}
	return "records"
}

func serializeCSVRunner(_ context.Context, in Envelope, _ Deps) (Envelope, error) {
	text, err := serialize.CSV(in.Rows())
	if err != nil {
		return Envelope{}, fmt.Errorf("serialize-csv: %w", err)
	}
	out := in
	out.Output = &Output{Filename: baseName(in.Meta) + ".csv", ContentType: ContentTypeCSV, Body: []byte(text)}
	return out, nil
}

func serializeXLSXRunner(_ context.Context, in Envelope, _ Deps) (Envelope, error) {
	body, err := serialize.XLSX(baseName(in.Meta), in.Rows())
	if err != nil {
		return Envelope{}, fmt.Errorf("serialize-xlsx: %w", err)
	}
	out := in
	out.Output = &Output{Filename: baseName(in.Meta) + ".xlsx", ContentType: ContentTypeXLSX, Body: body}
	return out, nil
}

func init() {
	Register("serialize-csv", serializeCSVRunner)
	Register("serialize-xlsx", serializeXLSXRunner)
}
