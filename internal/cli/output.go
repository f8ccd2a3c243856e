package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Ширина ячейки, после которой значение усекается в табличном режиме.
// Полные first_error и response excerpts смотрят через --json.
const cellLimit = 48

// Output управляет форматированием вывода CLI: таблицы для глаз,
// JSON для скриптов. Данные идут в stdout, сообщения — в stderr,
// чтобы табличный вывод можно было пайпить.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.json(jsonData)
		return
	}
	o.table(headers, rows)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

func (o *Output) table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cellValue(cell)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	tw.Flush()
}

func (o *Output) json(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(o.errW, "Error: encode output:", err)
	}
}

// cellValue нормализует значение для табличной ячейки: пустые
// опциональные поля показываются прочерком, длинные — усекаются.
func cellValue(s string) string {
	if s == "" {
		return "-"
	}
	if r := []rune(s); len(r) > cellLimit {
		return string(r[:cellLimit-1]) + "…"
	}
	return s
}
