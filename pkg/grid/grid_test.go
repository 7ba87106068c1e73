package grid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/carshop/pkg/car"
)

func fleet() []car.Car {
	return []car.Car{
		{ID: "1", Draft: car.Draft{Brand: "volvo", Model: "V60", Color: "Blue", Fuel: "Diesel", ModelYear: "2019", Price: "42000"}},
		{ID: "2", Draft: car.Draft{Brand: "Audi", Model: "A4", Color: "Black", Fuel: "Diesel", ModelYear: "2009", Price: "9000"}},
		{ID: "3", Draft: car.Draft{Brand: "BMW", Model: "i3", Color: "White", Fuel: "Electric", ModelYear: "2019", Price: "18500"}},
		{ID: "4", Draft: car.Draft{Brand: "Ford", Model: "Focus", Color: "Red", Fuel: "Petrol", ModelYear: "2012", Price: "n/a"}},
	}
}

func ids(rows []car.Car) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestColumns(t *testing.T) {
	require.Len(t, Columns, 7)
	assert.Equal(t, "brand", Columns[0].Field)
	assert.Equal(t, "Year", Columns[4].Header)
	assert.True(t, Columns[5].Numeric)

	actions := Columns[6]
	assert.Equal(t, ActionsColumn, actions.Field)
	assert.False(t, actions.Sortable)
	assert.False(t, actions.Filterable)
}

func TestSort(t *testing.T) {
	tests := []struct {
		field string
		desc  bool
		want  []string
	}{
		{"brand", false, []string{"2", "3", "4", "1"}},
		{"brand", true, []string{"1", "4", "3", "2"}},
		{"modelYear", false, []string{"2", "4", "1", "3"}},
		{"modelYear", true, []string{"1", "3", "4", "2"}},
		{"price", false, []string{"2", "3", "1", "4"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s desc=%v", tt.field, tt.desc), func(t *testing.T) {
			rows := fleet()
			require.NoError(t, Sort(rows, tt.field, tt.desc))
			assert.Equal(t, tt.want, ids(rows))
		})
	}
}

func TestSort_NumericNotLexical(t *testing.T) {
	rows := []car.Car{
		{ID: "a", Draft: car.Draft{Price: "100000"}},
		{ID: "b", Draft: car.Draft{Price: "9000"}},
	}
	require.NoError(t, Sort(rows, "price", false))
	assert.Equal(t, []string{"b", "a"}, ids(rows))
}

func TestSort_UnknownColumn(t *testing.T) {
	assert.Error(t, Sort(fleet(), "wheels", false))
	assert.Error(t, Sort(fleet(), ActionsColumn, false))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]string
		where   string
		want    []string
	}{
		{"substring ignores case", map[string]string{"fuel": "dies"}, "", []string{"1", "2"}},
		{"glob", map[string]string{"model": "?4"}, "", []string{"2"}},
		{"glob braces", map[string]string{"color": "{red,white}"}, "", []string{"3", "4"}},
		{"empty value ignored", map[string]string{"brand": ""}, "", []string{"1", "2", "3", "4"}},
		{"two columns", map[string]string{"fuel": "diesel", "modelYear": "2019"}, "", []string{"1"}},
		{"where numeric", nil, `price < 20000`, []string{"2", "3"}},
		{"where and filter", map[string]string{"fuel": "diesel"}, `modelYear >= 2010 && brand == "volvo"`, []string{"1"}},
		{"where on text price", nil, `price == "n/a"`, []string{"4"}},
		{"where id", nil, `id in ["2", "4"]`, []string{"2", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Filter(fleet(), tt.filters, tt.where)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
		})
	}
}

func TestFilter_Errors(t *testing.T) {
	_, err := Filter(fleet(), map[string]string{"wheels": "4"}, "")
	assert.Error(t, err)

	_, err = Filter(fleet(), nil, "price <")
	assert.ErrorContains(t, err, "invalid where expression")
}

func TestPaginate(t *testing.T) {
	rows := make([]car.Car, 23)
	for i := range rows {
		rows[i].ID = fmt.Sprint(i + 1)
	}

	p := Paginate(rows, 0, 0)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 3, p.Count)
	assert.Equal(t, 23, p.Total)
	assert.Len(t, p.Rows, DefaultPageSize)

	p = Paginate(rows, 3, 10)
	assert.Equal(t, []string{"21", "22", "23"}, ids(p.Rows))

	p = Paginate(rows, 99, 10)
	assert.Equal(t, 3, p.Number)

	p = Paginate(nil, 2, 10)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.Count)
	assert.Empty(t, p.Rows)
}

func TestApply(t *testing.T) {
	src := fleet()
	p, err := Apply(src, Query{
		SortBy:   "price",
		Desc:     true,
		Filters:  map[string]string{"fuel": "d*"},
		PageSize: 1,
		Page:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(p.Rows))
	assert.Equal(t, 2, p.Count)
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(src))
}

func TestSearch(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"bl", []string{"1", "2"}},
		{"2019", []string{"1", "3"}},
		{"4", []string{"1", "2", "4"}},
		{"e*", []string{"3"}},
		{"zeppelin", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Search(fleet(), tt.pattern)))
		})
	}

	p, err := Apply(fleet(), Query{Search: "diesel", SortBy: "brand"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, ids(p.Rows))
}
