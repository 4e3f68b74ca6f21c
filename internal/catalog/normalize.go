package catalog

import (
	"math"
	"strings"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// Normalize reconciles backend product records into canonical products.
// Records without an id are dropped and duplicate ids keep their first
// occurrence. The input slice is not modified.
func Normalize(raw []models.RawProduct) []models.Product {
	out := make([]models.Product, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, r := range raw {
		id := strings.TrimSpace(string(r.ID))
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		unit := strings.TrimSpace(r.Unit)
		if unit == "" {
			unit = models.DefaultUnit
		}

		out = append(out, models.Product{
			ID:         id,
			Name:       r.Name,
			Quantity:   coalesceQuantity(r.Quantity, r.Q),
			Unit:       unit,
			Categories: coalesceCategories(r),
		})
	}

	return out
}

// coalesceQuantity prefers quantity over q. A present but invalid value
// clamps to zero rather than falling through to q.
func coalesceQuantity(quantity, q *models.FlexNumber) int {
	v := quantity
	if v == nil {
		v = q
	}
	if v == nil {
		return 0
	}
	f := float64(*v)
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func coalesceCategories(r models.RawProduct) []string {
	cats := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	if len(cats) > 0 {
		return cats
	}
	if c := strings.TrimSpace(r.Category); c != "" {
		return []string{c}
	}
	if c := strings.TrimSpace(r.PrimaryCategory); c != "" {
		return []string{c}
	}
	return []string{models.DefaultCategory}
}
