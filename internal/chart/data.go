package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/mirrorgen/internal/item"
)

// series is one numeric column of a table, labelled by its header.
type series struct {
	Name   string
	Values []float64
}

// dataset is a table split into row labels and numeric series.
type dataset struct {
	Labels []string
	Series []series
}

// number converts a table cell to a float. Models emit numbers as JSON
// numbers or as strings, sometimes with a decimal comma or a percent sign.
func number(cell any) (float64, bool) {
	switch v := cell.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func label(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// categorical reads the first column as labels and every column after it
// whose cells are all numeric as a series.
func categorical(t *item.TableData) (*dataset, error) {
	if len(t.Columns) < 2 {
		return nil, fmt.Errorf("need a label column and at least one value column, got %d columns", len(t.Columns))
	}

	ds := &dataset{}
	for _, row := range t.Rows {
		ds.Labels = append(ds.Labels, label(row[0]))
	}

	for col := 1; col < len(t.Columns); col++ {
		s := series{Name: t.Columns[col]}
		ok := true
		for _, row := range t.Rows {
			v, isNum := number(row[col])
			if !isNum {
				ok = false
				break
			}
			s.Values = append(s.Values, v)
		}
		if ok {
			ds.Series = append(ds.Series, s)
		}
	}

	if len(ds.Series) == 0 {
		return nil, fmt.Errorf("no numeric value column")
	}
	return ds, nil
}

// columns reads every all-numeric column as a sample, for box plots.
func columns(t *item.TableData) []series {
	var out []series
	for col, name := range t.Columns {
		s := series{Name: name}
		for _, row := range t.Rows {
			if v, ok := number(row[col]); ok {
				s.Values = append(s.Values, v)
			}
		}
		if len(s.Values) == len(t.Rows) {
			out = append(out, s)
		}
	}
	return out
}

// points reads the first two columns as numeric x/y pairs.
func points(t *item.TableData) ([][2]float64, error) {
	if len(t.Columns) < 2 {
		return nil, fmt.Errorf("need x and y columns, got %d columns", len(t.Columns))
	}
	var out [][2]float64
	for i, row := range t.Rows {
		x, okX := number(row[0])
		y, okY := number(row[1])
		if !okX || !okY {
			return nil, fmt.Errorf("row %d is not a numeric point", i+1)
		}
		out = append(out, [2]float64{x, y})
	}
	return out, nil
}

// bounds returns the min and max over all values, widened to include zero
// when includeZero is set.
func bounds(includeZero bool, ss ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range ss {
		for _, v := range s {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// quartiles returns min, q1, median, q3 and max of sorted values.
func quartiles(sorted []float64) [5]float64 {
	n := len(sorted)
	at := func(p float64) float64 {
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		if i+1 >= n {
			return sorted[n-1]
		}
		frac := pos - float64(i)
		return sorted[i] + frac*(sorted[i+1]-sorted[i])
	}
	return [5]float64{sorted[0], at(0.25), at(0.5), at(0.75), sorted[n-1]}
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
