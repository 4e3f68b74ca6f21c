package departments

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// Source lists departments from the backend.
type Source interface {
	GetDepartments(ctx context.Context) ([]models.Department, error)
}

// Defaults is the fixed set used whenever the backend cannot supply
// departments, so distribution targets are never empty.
var Defaults = []models.DisplayDepartment{
	{ID: "pastry", Name: "Pastry", Description: "Pastry kitchen", Icon: "cake", Color: "#F59E0B", ActiveColor: "#B45309"},
	{ID: "bakery", Name: "Bakery", Description: "Bread production", Icon: "bread-slice", Color: "#D97706", ActiveColor: "#92400E"},
	{ID: "cleaning", Name: "Cleaning", Description: "Cleaning supplies", Icon: "broom", Color: "#10B981", ActiveColor: "#047857"},
	{ID: "office", Name: "Office", Description: "Office supplies", Icon: "briefcase", Color: "#3B82F6", ActiveColor: "#1D4ED8"},
}

// All is the pseudo-department prepended to filter lists.
var All = models.DisplayDepartment{ID: models.AllDepartmentsID, Name: "All", Icon: "apps", Color: "#6B7280", ActiveColor: "#111827"}

var palette = []struct{ color, active string }{
	{"#8B5CF6", "#6D28D9"},
	{"#EC4899", "#BE185D"},
	{"#14B8A6", "#0F766E"},
	{"#F97316", "#C2410C"},
	{"#6366F1", "#4338CA"},
}

const defaultIcon = "business"

// Directory caches the department list for distribution targets and filters.
type Directory struct {
	source Source
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	entries   []models.DisplayDepartment
	fetchedAt time.Time
	fallback  bool
	loaded    bool
}

// NewDirectory builds a directory. A zero ttl refetches on every Load.
func NewDirectory(source Source, ttl time.Duration, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		source: source,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Load returns the department list, fetching it unless a cached copy is
// younger than the configured ttl. It never fails: fetch errors and empty
// results fall back to Defaults.
func (d *Directory) Load(ctx context.Context) []models.DisplayDepartment {
	if d.ttl > 0 {
		d.mu.RLock()
		fresh := d.loaded && d.now().Sub(d.fetchedAt) < d.ttl
		d.mu.RUnlock()
		if fresh {
			return d.Departments()
		}
	}
	return d.Refresh(ctx)
}

// Refresh refetches unconditionally.
func (d *Directory) Refresh(ctx context.Context) []models.DisplayDepartment {
	records, err := d.source.GetDepartments(ctx)

	var entries []models.DisplayDepartment
	fallback := false
	switch {
	case err != nil:
		d.logger.Warn("department fetch failed, using defaults", zap.Error(err))
		fallback = true
	default:
		entries = toDisplay(records)
		if len(entries) == 0 {
			d.logger.Info("backend returned no departments, using defaults")
			fallback = true
		}
	}
	if fallback {
		entries = append([]models.DisplayDepartment(nil), Defaults...)
	}

	d.mu.Lock()
	d.entries = entries
	d.fallback = fallback
	d.fetchedAt = d.now()
	d.loaded = true
	d.mu.Unlock()

	return d.Departments()
}

// Departments returns the cached list without fetching. Before the first
// load it returns Defaults.
func (d *Directory) Departments() []models.DisplayDepartment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return append([]models.DisplayDepartment(nil), Defaults...)
	}
	return append([]models.DisplayDepartment(nil), d.entries...)
}

// FilterOptions returns the cached list with the All pseudo-department first.
func (d *Directory) FilterOptions() []models.DisplayDepartment {
	return append([]models.DisplayDepartment{All}, d.Departments()...)
}

// Lookup finds a department by id in the cached list.
func (d *Directory) Lookup(id string) (models.DisplayDepartment, bool) {
	for _, dep := range d.Departments() {
		if dep.ID == id {
			return dep, true
		}
	}
	return models.DisplayDepartment{}, false
}

// UsingFallback reports whether the cached list is the default set.
func (d *Directory) UsingFallback() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.loaded || d.fallback
}

func toDisplay(records []models.Department) []models.DisplayDepartment {
	out := make([]models.DisplayDepartment, 0, len(records))
	for _, r := range records {
		id := strings.TrimSpace(string(r.ID))
		name := strings.TrimSpace(r.Name)
		if id == "" || name == "" {
			continue
		}

		shade := palette[len(out)%len(palette)]
		dep := models.DisplayDepartment{
			ID:          id,
			Name:        name,
			Description: r.Description,
			Icon:        r.Icon,
			Color:       r.Color,
			ActiveColor: shade.active,
		}
		if dep.Icon == "" {
			dep.Icon = defaultIcon
		}
		if dep.Color == "" {
			dep.Color = shade.color
		}
		out = append(out, dep)
	}
	return out
}
