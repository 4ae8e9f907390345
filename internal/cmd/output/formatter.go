// Package output provides formatters for command output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format selects an output encoding.
type Format string

const (
	// FormatTable renders a bordered table.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
	// FormatMarkdown renders a markdown document, where supported.
	FormatMarkdown Format = "markdown"
)

// Formatter renders command results to a writer.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// New creates the formatter for a format.
func New(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// JSONFormatter renders indented JSON.
type JSONFormatter struct {
	Indent string
}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(data)
}

// YAMLFormatter renders YAML.
type YAMLFormatter struct{}

// Format implements Formatter.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	yamlData, err := yaml.MarshalWithOptions(data,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(yamlData)
	return err
}

// Data is pre-shaped table content.
type Data struct {
	Headers   []string
	Rows      [][]string
	Alignment []tw.Align
}

// TableFormatter renders tables. Structs and struct slices that are
// not already Data are converted via reflection using their json tags
// as headers; anything else falls back to JSON.
type TableFormatter struct{}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if d, ok := data.(Data); ok {
		return renderTable(w, d)
	}
	if d := toTableData(data); d != nil {
		return renderTable(w, *d)
	}
	return (&JSONFormatter{Indent: "  "}).Format(w, data)
}

func renderTable(w io.Writer, data Data) error {
	config := tablewriter.Config{}
	if len(data.Alignment) > 0 {
		config.Header.Alignment = tw.CellAlignment{PerColumn: data.Alignment}
		config.Row.Alignment = tw.CellAlignment{PerColumn: data.Alignment}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	if len(data.Headers) > 0 {
		headers := make([]any, len(data.Headers))
		for i, h := range data.Headers {
			headers[i] = h
		}
		table.Header(headers...)
	}
	for _, row := range data.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

// DetectFormat picks the format for the current stdout: tables on a
// terminal, JSON when piped. An explicit format always wins.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat converts a string to a Format with validation.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, FormatMarkdown, "":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml, markdown", s)
	}
}

func toTableData(data any) *Data {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice && v.Len() > 0 && v.Index(0).Kind() == reflect.Struct {
		return sliceToTableData(v)
	}
	if v.Kind() == reflect.Struct {
		return structToTableData(v)
	}
	return nil
}

func sliceToTableData(v reflect.Value) *Data {
	elemType := v.Index(0).Type()

	var headers []string
	for i := 0; i < elemType.NumField(); i++ {
		headers = append(headers, headerName(elemType.Field(i)))
	}

	var rows [][]string
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		row := make([]string, elem.NumField())
		for j := 0; j < elem.NumField(); j++ {
			row[j] = fmt.Sprintf("%v", elem.Field(j).Interface())
		}
		rows = append(rows, row)
	}
	return &Data{Headers: headers, Rows: rows}
}

func structToTableData(v reflect.Value) *Data {
	elemType := v.Type()
	rows := make([][]string, 0, elemType.NumField())
	for i := 0; i < elemType.NumField(); i++ {
		rows = append(rows, []string{
			headerName(elemType.Field(i)),
			fmt.Sprintf("%v", v.Field(i).Interface()),
		})
	}
	return &Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

func headerName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	if i := strings.Index(tag, ","); i > 0 {
		tag = tag[:i]
	}
	return cases.Title(language.English).String(strings.ReplaceAll(tag, "_", " "))
}
