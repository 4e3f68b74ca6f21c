package movement

import (
	"context"
	"sync"

	"github.com/mamadbah2/stockkeeper/internal/catalog"
	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// timeline records the order in which collaborators were called.
type timeline struct {
	mu     sync.Mutex
	events []string
}

func (t *timeline) add(e string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func (t *timeline) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

type productSource struct {
	tl       *timeline
	mu       sync.Mutex
	products []models.RawProduct
	err      error
}

func (p *productSource) GetProducts(context.Context) ([]models.RawProduct, error) {
	p.tl.add("refresh")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.products, p.err
}

func (p *productSource) set(products ...models.RawProduct) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.products = products
}

type fakeGateway struct {
	tl      *timeline
	mu      sync.Mutex
	calls   []models.StockMovement
	resp    *models.MovementResponse
	err     error
	entered chan struct{}
	release chan struct{}
	// onCreate runs after the call is recorded, e.g. to move backend stock.
	onCreate func(models.StockMovement)
}

func (g *fakeGateway) CreateMovement(_ context.Context, m models.StockMovement) (*models.MovementResponse, error) {
	g.tl.add("create")
	g.mu.Lock()
	g.calls = append(g.calls, m)
	g.mu.Unlock()

	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	if g.onCreate != nil {
		g.onCreate(m)
	}
	return g.resp, g.err
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeDirectory struct {
	tl    *timeline
	mu    sync.Mutex
	deps  []models.DisplayDepartment
	loads int
	// onRefresh replaces the list on the next Refresh, e.g. a department the backend just created.
	onRefresh []models.DisplayDepartment
}

func (d *fakeDirectory) Load(context.Context) []models.DisplayDepartment {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loads++
	return append([]models.DisplayDepartment(nil), d.deps...)
}

func (d *fakeDirectory) Refresh(context.Context) []models.DisplayDepartment {
	d.tl.add("departments")
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.onRefresh != nil {
		d.deps, d.onRefresh = d.onRefresh, nil
	}
	return append([]models.DisplayDepartment(nil), d.deps...)
}

func (d *fakeDirectory) Departments() []models.DisplayDepartment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.DisplayDepartment(nil), d.deps...)
}

func (d *fakeDirectory) Lookup(id string) (models.DisplayDepartment, bool) {
	for _, dep := range d.Departments() {
		if dep.ID == id {
			return dep, true
		}
	}
	return models.DisplayDepartment{}, false
}

type fakeNotifier struct {
	tl            *timeline
	store         *catalog.Store
	err           error
	panicWith     any
	stockIn       []models.StockInAlert
	distributions []models.DistributionAlert
	// stockSeen captures P1's cached stock at the moment the alert is scheduled.
	stockSeen []int
}

func (n *fakeNotifier) ScheduleStockInAlert(_ context.Context, a models.StockInAlert) error {
	n.tl.add("notify")
	if n.panicWith != nil {
		panic(n.panicWith)
	}
	n.stockIn = append(n.stockIn, a)
	if n.store != nil {
		n.stockSeen = append(n.stockSeen, n.store.StockOf("P1"))
	}
	return n.err
}

func (n *fakeNotifier) ScheduleDistributionAlert(_ context.Context, a models.DistributionAlert) error {
	n.tl.add("notify")
	n.distributions = append(n.distributions, a)
	if n.store != nil {
		n.stockSeen = append(n.stockSeen, n.store.StockOf("P1"))
	}
	return n.err
}

type fakeRecorder struct {
	tl        *timeline
	err       error
	committed []models.CommittedMovement
}

func (r *fakeRecorder) RecordMovement(_ context.Context, c models.CommittedMovement) error {
	r.tl.add("record")
	r.committed = append(r.committed, c)
	return r.err
}

var testDepartments = []models.DisplayDepartment{
	{ID: "bakery", Name: "Bakery"},
	{ID: "office", Name: "Office"},
}

type fixture struct {
	tl        *timeline
	source    *productSource
	store     *catalog.Store
	directory *fakeDirectory
	gateway   *fakeGateway
	notifier  *fakeNotifier
	recorder  *fakeRecorder
	submitter *Submitter
}

func newFixture() *fixture {
	tl := &timeline{}
	source := &productSource{tl: tl}
	source.set(
		models.RawProduct{ID: "P1", Name: "Flour", Quantity: models.Num(30), Unit: "kg"},
		models.RawProduct{ID: "P2", Name: "Soap", Quantity: models.Num(5), Unit: "units"},
	)
	store := catalog.NewStore(source, nil)
	_, _ = store.Refresh(context.Background())
	tl.events = nil

	f := &fixture{
		tl:        tl,
		source:    source,
		store:     store,
		directory: &fakeDirectory{tl: tl, deps: testDepartments},
		gateway:   &fakeGateway{tl: tl, resp: &models.MovementResponse{Success: true}},
		notifier:  &fakeNotifier{tl: tl, store: store},
		recorder:  &fakeRecorder{tl: tl},
	}
	f.submitter = NewSubmitter(f.gateway, store, f.directory, f.notifier, nil, f.recorder)
	return f
}

func (f *fixture) draft(t models.MovementType) *Draft {
	d, err := NewDraft(t, "Amadou", f.store)
	if err != nil {
		panic(err)
	}
	return d
}
