package catalog

import "stockfeed/internal/model"

// Group folds variants into one ProductGroup per distinct name. Groups appear
// in the order their name is first seen; each group takes its display fields
// from that first variant and lists every variant of the name in input order.
func Group(variants []model.ProductVariant) []model.ProductGroup {
	groups := make([]model.ProductGroup, 0)
	index := make(map[string]int)

	for _, v := range variants {
		i, ok := index[v.Name]
		if !ok {
			i = len(groups)
			index[v.Name] = i
			groups = append(groups, model.ProductGroup{
				ID:          v.ID,
				ProductID:   v.ProductID,
				Name:        v.Name,
				Category:    v.Category,
				Price:       v.Price,
				Stock:       v.Stock,
				ImageURL:    v.ImageURL,
				Brand:       v.Brand,
				Description: v.Description,
				Items:       []model.VariantRef{},
			})
		}
		groups[i].Items = append(groups[i].Items, model.VariantRef{
			Color:     v.Color,
			Size:      v.Size,
			Reference: v.Reference,
		})
	}
	return groups
}
