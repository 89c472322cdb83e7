package catalog

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"stockfeed/internal/model"
)

// memoryReader filters and windows rows the way the SQL store does.
type memoryReader struct {
	rows []model.ProductVariant
	err  error
}

func (m *memoryReader) match(filter model.ProductFilter) []model.ProductVariant {
	var out []model.ProductVariant
	for _, r := range m.rows {
		if filter.ProductID != "" && r.ProductID != filter.ProductID {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *memoryReader) Find(_ context.Context, filter model.ProductFilter, page model.Page) ([]model.ProductVariant, error) {
	if m.err != nil {
		return nil, m.err
	}
	rows := m.match(filter)
	if page.Offset >= len(rows) {
		return []model.ProductVariant{}, nil
	}
	rows = rows[page.Offset:]
	if page.Limit > 0 && page.Limit < len(rows) {
		rows = rows[:page.Limit]
	}
	return rows, nil
}

func (m *memoryReader) Count(_ context.Context, filter model.ProductFilter) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.match(filter))), nil
}

func (m *memoryReader) Categories(context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range m.rows {
		if _, ok := seen[r.Category]; !ok {
			seen[r.Category] = struct{}{}
			out = append(out, r.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func sampleRows() []model.ProductVariant {
	return []model.ProductVariant{
		{ID: 1, ProductID: "10", Name: "Body Lina", Category: "Body", Color: "Noir", Size: "S"},
		{ID: 2, ProductID: "10", Name: "Body Lina", Category: "Body", Color: "Noir", Size: "M"},
		{ID: 3, ProductID: "10", Name: "Body Lina", Category: "Body", Color: "Noir", Size: "L"},
		{ID: 4, ProductID: "20", Name: "Bas Voile", Category: "Bas", Color: "Chair", Size: "2"},
		{ID: 5, ProductID: "30", Name: "Body Rita", Category: "Body", Color: "Rouge", Size: "TU"},
	}
}

func TestAllGroupsEveryRow(t *testing.T) {
	svc := NewService(&memoryReader{rows: sampleRows()})

	groups, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 3)
	require.Equal(t, "Body Lina", groups[0].Name)
	require.Len(t, groups[0].Items, 3)
}

func TestPaginatedTotalsCountRowsNotGroups(t *testing.T) {
	svc := NewService(&memoryReader{rows: sampleRows()})

	res, err := svc.Paginated(context.Background(), PageRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1, "both rows of page 1 belong to Body Lina")
	require.Len(t, res.Groups[0].Items, 2)
	require.EqualValues(t, 5, res.TotalProducts)
	require.Equal(t, 3, res.TotalPages)
	require.Equal(t, 1, res.CurrentPage)
	require.Equal(t, 2, res.PageSize)

	res, err = svc.Paginated(context.Background(), PageRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2, "the third Body Lina row spills onto page 2")
	require.Equal(t, "Body Lina", res.Groups[0].Name)
	require.Equal(t, "L", res.Groups[0].Items[0].Size)
	require.Equal(t, "Bas Voile", res.Groups[1].Name)

	res, err = svc.Paginated(context.Background(), PageRequest{Page: 9, PageSize: 2})
	require.NoError(t, err)
	require.Empty(t, res.Groups)
	require.EqualValues(t, 5, res.TotalProducts)
}

func TestPaginatedDefaults(t *testing.T) {
	svc := NewService(&memoryReader{rows: sampleRows()})

	res, err := svc.Paginated(context.Background(), PageRequest{})
	require.NoError(t, err)
	require.Equal(t, DefaultPage, res.CurrentPage)
	require.Equal(t, DefaultPageSize, res.PageSize)
	require.Equal(t, 1, res.TotalPages)
	require.Len(t, res.Groups, 3)
}

func TestByID(t *testing.T) {
	svc := NewService(&memoryReader{rows: sampleRows()})

	groups, err := svc.ByID(context.Background(), "10")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Items, 3)

	groups, err = svc.ByID(context.Background(), "missing")
	require.NoError(t, err)
	require.NotNil(t, groups)
	require.Empty(t, groups)
}

func TestByCategory(t *testing.T) {
	svc := NewService(&memoryReader{rows: sampleRows()})

	res, err := svc.ByCategory(context.Background(), "Body", PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	require.EqualValues(t, 4, res.TotalProducts)
	require.Equal(t, 1, res.TotalPages)

	res, err = svc.ByCategory(context.Background(), "Chaussures", PageRequest{})
	require.NoError(t, err)
	require.Empty(t, res.Groups)
	require.Zero(t, res.TotalProducts)
	require.Zero(t, res.TotalPages)
}

func TestCategories(t *testing.T) {
	svc := NewService(&memoryReader{rows: sampleRows()})

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Bas", "Body"}, categories)
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&memoryReader{err: boom})

	_, err := svc.All(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = svc.Paginated(context.Background(), PageRequest{})
	require.ErrorIs(t, err, boom)
}
