package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/macrolens/mealtracker/internal/domain"
	"github.com/macrolens/mealtracker/internal/usecase"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var nutrientHeaders = []string{"kcal", "protein g", "fat g", "carbs g", "fiber g", "sugar g"}

func nutrientCells(p domain.NutrientProfile) []string {
	return []string{num(p.Calories), num(p.Protein), num(p.Fat), num(p.Carbs), num(p.Fiber), num(p.Sugar)}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderDay(w io.Writer, s *usecase.DaySummary) {
	fmt.Fprintln(w, titleStyle.Render("Summary for "+s.Date.String()))
	if len(s.Meals) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no meals logged"))
		return
	}

	t := newTable(append([]string{"meal", "time", "entries"}, nutrientHeaders...)...)
	for _, m := range s.Meals {
		row := []string{string(m.Type), m.LoggedAt.Format("15:04"), strconv.Itoa(len(m.Entries))}
		t.Row(append(row, nutrientCells(m.Totals)...)...)
	}
	t.Row(append([]string{"total", "", ""}, nutrientCells(s.Totals)...)...)
	fmt.Fprintln(w, t.Render())
}

func renderSeries(w io.Writer, from, to domain.CalendarDate, s usecase.Series) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Daily totals %s to %s", from, to)))
	if len(s) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no meals logged"))
		return
	}

	t := newTable(append([]string{"day", "meals"}, nutrientHeaders...)...)
	for _, b := range s {
		t.Row(append([]string{b.Day.String(), strconv.Itoa(b.Meals)}, nutrientCells(b.Totals)...)...)
	}
	t.Row(append([]string{"total", ""}, nutrientCells(s.Total())...)...)
	fmt.Fprintln(w, t.Render())
}

func renderFoodItem(w io.Writer, item *domain.FoodItem) {
	fmt.Fprintln(w, titleStyle.Render(item.Name)+" "+mutedStyle.Render(item.ID))
	t := newTable(append([]string{"per"}, nutrientHeaders...)...)
	t.Row(append([]string{"100 g"}, nutrientCells(item.Per100g)...)...)
	fmt.Fprintln(w, t.Render())
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
