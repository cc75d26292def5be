package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/mandelsoft/meshcalc/pkg/utils"
)

func PrintTable(w io.Writer, columns []string, rows [][]string) {
	max := make([]int, len(columns))
	for i, s := range columns {
		max[i] = len(s)
	}
	for _, cols := range rows {
		for i, s := range cols {
			if max[i] < len(s) {
				max[i] = len(s)
			}
		}
	}

	f := formatString(max)
	printLine(w, columns, f)
	for _, cols := range rows {
		printLine(w, cols, f)
	}
}

func printLine(w io.Writer, cols []string, msg string) {
	fmt.Fprintf(w, "%s\n", strings.TrimRight(fmt.Sprintf(msg, utils.ConvertSlice[any](cols)...), " "))
}

func formatString(max []int) string {
	msg := ""
	for _, l := range max {
		msg += fmt.Sprintf("%%-%ds ", l)
	}
	return msg[:len(msg)-1]
}

func formatTimes(times []float64) string {
	return utils.JoinFunc(times, ",", func(t float64) string { return fmt.Sprintf("%g", t) })
}
