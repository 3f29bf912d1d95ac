package checkout

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go-adega-pos/internal/catalog"
	"go-adega-pos/internal/models"
	"go-adega-pos/internal/testhelpers"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

type fixture struct {
	db      *gorm.DB
	proc    *Processor
	cashier models.User
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := testhelpers.NewTestDB(t)
	return &fixture{
		db:      db,
		proc:    NewProcessor(NewGormStore(db), opts...),
		cashier: testhelpers.CreateUser(t, db, "caixa", models.RoleCashier),
	}
}

func (f *fixture) request(method models.PaymentMethod, received *decimal.Decimal, lines ...Line) Request {
	return Request{
		CashierID:     f.cashier.ID,
		CashierName:   f.cashier.Username,
		PaymentMethod: method,
		Items:         lines,
		Received:      received,
	}
}

func (f *fixture) saleCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.Sale{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func TestProcessSaleDecrementsStockAndRecordsSale(t *testing.T) {
	f := newFixture(t)
	wine := testhelpers.CreateProduct(t, f.db, "VIN", 10, "20.00", "34.90")
	beer := testhelpers.CreateProduct(t, f.db, "CER", 24, "3.10", "5.50")

	req := f.request(models.PaymentCredit, nil, Line{wine.ID, 2}, Line{beer.ID, 6})
	req.Discount = d("4.80")
	receipt, err := f.proc.ProcessSale(context.Background(), req)
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	if got := testhelpers.Stock(t, f.db, wine.ID); got != 8 {
		t.Fatalf("wine stock = %d, want 8", got)
	}
	if got := testhelpers.Stock(t, f.db, beer.ID); got != 18 {
		t.Fatalf("beer stock = %d, want 18", got)
	}

	sale := receipt.Sale
	sum := decimal.Zero
	for _, it := range sale.Items {
		sum = sum.Add(it.LineTotal)
	}
	if !sum.Equal(sale.Subtotal) || !sale.Subtotal.Equal(d("102.80")) {
		t.Fatalf("subtotal = %s, sum of lines = %s", sale.Subtotal, sum)
	}
	if !sale.Total.Equal(sale.Subtotal.Sub(sale.Discount)) || !sale.Total.Equal(d("98.00")) {
		t.Fatalf("total = %s", sale.Total)
	}
	// Non-cash without a tendered amount settles exactly.
	if !sale.Received.Equal(sale.Total) || !sale.ChangeDue.IsZero() {
		t.Fatalf("received = %s change = %s", sale.Received, sale.ChangeDue)
	}
	if !sale.Items[0].LineProfit.Equal(d("29.80")) || !sale.Items[1].LineProfit.Equal(d("14.40")) {
		t.Fatalf("line profits = %s, %s", sale.Items[0].LineProfit, sale.Items[1].LineProfit)
	}
	if receipt.Cashier != "caixa" || sale.UserID != f.cashier.ID || sale.Reference == "" {
		t.Fatalf("unexpected receipt header %+v", receipt)
	}

	var stored models.Sale
	if err := f.db.Preload("Items").First(&stored, sale.ID).Error; err != nil {
		t.Fatalf("sale not stored: %v", err)
	}
	if len(stored.Items) != 2 || !stored.Total.Equal(d("98")) {
		t.Fatalf("stored sale = %+v", stored)
	}
}

func TestOutOfStockIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	a := testhelpers.CreateProduct(t, f.db, "A", 5, "1.00", "2.00")
	b := testhelpers.CreateProduct(t, f.db, "B", 1, "1.00", "2.00")
	c := testhelpers.CreateProduct(t, f.db, "C", 0, "1.00", "2.00")

	_, err := f.proc.ProcessSale(context.Background(),
		f.request(models.PaymentDebit, nil, Line{a.ID, 2}, Line{b.ID, 3}, Line{c.ID, 1}))

	var oos *OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if len(oos.Shortages) != 2 || oos.Shortages[0].ProductID != b.ID || oos.Shortages[1].ProductID != c.ID {
		t.Fatalf("shortages = %+v", oos.Shortages)
	}
	if testhelpers.Stock(t, f.db, a.ID) != 5 || testhelpers.Stock(t, f.db, b.ID) != 1 {
		t.Fatal("stock changed on a failed sale")
	}
	if f.saleCount(t) != 0 {
		t.Fatal("sale recorded on failure")
	}
}

func TestDuplicateLinesAreCheckedTogether(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 5, "1.00", "2.00")

	_, err := f.proc.ProcessSale(context.Background(),
		f.request(models.PaymentPix, nil, Line{p.ID, 3}, Line{p.ID, 3}))
	var oos *OutOfStockError
	if !errors.As(err, &oos) || oos.Shortages[0].Requested != 6 || oos.Shortages[0].Available != 5 {
		t.Fatalf("expected shortage 6/5, got %v", err)
	}

	receipt, err := f.proc.ProcessSale(context.Background(),
		f.request(models.PaymentPix, nil, Line{p.ID, 2}, Line{p.ID, 3}))
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}
	if len(receipt.Sale.Items) != 2 || testhelpers.Stock(t, f.db, p.ID) != 0 {
		t.Fatalf("items = %d stock = %d", len(receipt.Sale.Items), testhelpers.Stock(t, f.db, p.ID))
	}
}

func TestCashPayment(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 10, "10.00", "25.00")

	_, err := f.proc.ProcessSale(context.Background(), f.request(models.PaymentCash, dp("24.99"), Line{p.ID, 1}))
	var pay *InsufficientPaymentError
	if !errors.As(err, &pay) || !pay.Required.Equal(d("25")) || !pay.Received.Equal(d("24.99")) {
		t.Fatalf("expected InsufficientPaymentError 25/24.99, got %v", err)
	}

	_, err = f.proc.ProcessSale(context.Background(), f.request(models.PaymentCash, nil, Line{p.ID, 1}))
	if !errors.As(err, &pay) || !pay.Received.IsZero() {
		t.Fatalf("cash without tendered amount: %v", err)
	}
	if testhelpers.Stock(t, f.db, p.ID) != 10 || f.saleCount(t) != 0 {
		t.Fatal("failed payment left side effects")
	}

	receipt, err := f.proc.ProcessSale(context.Background(), f.request(models.PaymentCash, dp("50"), Line{p.ID, 1}))
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}
	if !receipt.Sale.ChangeDue.Equal(d("25")) || !receipt.Sale.Received.Equal(d("50")) {
		t.Fatalf("change = %s", receipt.Sale.ChangeDue)
	}

	receipt, err = f.proc.ProcessSale(context.Background(), f.request(models.PaymentCash, dp("25.00"), Line{p.ID, 1}))
	if err != nil || !receipt.Sale.ChangeDue.IsZero() {
		t.Fatalf("exact cash: %v", err)
	}
}

func TestNonCashWithTenderedAmount(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 10, "10.00", "25.00")

	receipt, err := f.proc.ProcessSale(context.Background(), f.request(models.PaymentDebit, dp("30"), Line{p.ID, 1}))
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}
	if !receipt.Sale.Received.Equal(d("30")) || !receipt.Sale.ChangeDue.Equal(d("5")) {
		t.Fatalf("received = %s change = %s", receipt.Sale.Received, receipt.Sale.ChangeDue)
	}

	// Short card tender is not rejected; change never goes negative.
	receipt, err = f.proc.ProcessSale(context.Background(), f.request(models.PaymentCredit, dp("10"), Line{p.ID, 1}))
	if err != nil || !receipt.Sale.ChangeDue.IsZero() {
		t.Fatalf("short card tender: %v", err)
	}
}

func TestEachCallCreatesANewSale(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 10, "1.00", "2.00")
	req := f.request(models.PaymentPix, nil, Line{p.ID, 3})

	first, err := f.proc.ProcessSale(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.proc.ProcessSale(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Sale.ID == second.Sale.ID || first.Sale.Reference == second.Sale.Reference {
		t.Fatal("second call reused the first sale")
	}
	if f.saleCount(t) != 2 || testhelpers.Stock(t, f.db, p.ID) != 4 {
		t.Fatalf("sales = %d stock = %d", f.saleCount(t), testhelpers.Stock(t, f.db, p.ID))
	}
}

func TestConcurrentCheckoutsDoNotOversell(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 10, "1.00", "2.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.proc.ProcessSale(context.Background(), f.request(models.PaymentPix, nil, Line{p.ID, 6}))
		}(i)
	}
	wg.Wait()

	ok, failed := 0, 0
	for _, err := range errs {
		var oos *OutOfStockError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &oos), errors.Is(err, ErrConcurrencyConflict):
			failed++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("ok = %d failed = %d", ok, failed)
	}
	if got := testhelpers.Stock(t, f.db, p.ID); got != 4 {
		t.Fatalf("stock = %d, want 4", got)
	}
	if f.saleCount(t) != 1 {
		t.Fatalf("sales = %d", f.saleCount(t))
	}
}

func TestScenarioSmallCashSale(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "BALA", 97, "0.20", "0.50")

	receipt, err := f.proc.ProcessSale(context.Background(), f.request(models.PaymentCash, dp("1.00"), Line{p.ID, 2}))
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}
	if !receipt.Sale.Total.Equal(d("1.00")) || !receipt.Sale.ChangeDue.Equal(d("0.00")) {
		t.Fatalf("total = %s change = %s", receipt.Sale.Total, receipt.Sale.ChangeDue)
	}
	if got := testhelpers.Stock(t, f.db, p.ID); got != 95 {
		t.Fatalf("stock = %d, want 95", got)
	}
}

func TestScenarioOversizedOrder(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 38, "1.00", "2.00")

	_, err := f.proc.ProcessSale(context.Background(), f.request(models.PaymentPix, nil, Line{p.ID, 100}))
	var oos *OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if s := oos.Shortages[0]; s.Requested != 100 || s.Available != 38 {
		t.Fatalf("shortage = %+v", s)
	}
	if got := testhelpers.Stock(t, f.db, p.ID); got != 38 {
		t.Fatalf("stock = %d, want 38", got)
	}
}

func TestSnapshotsSurvivePriceChanges(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 10, "12.00", "20.00")

	receipt, err := f.proc.ProcessSale(context.Background(), f.request(models.PaymentPix, nil, Line{p.ID, 1}))
	if err != nil {
		t.Fatal(err)
	}
	repo := catalog.New(f.db)
	if err := repo.UpdatePrice(context.Background(), p.ID, d("99.00")); err != nil {
		t.Fatal(err)
	}
	if err := f.db.Model(&models.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"cost_price": d("50"), "name": "Renamed"}).Error; err != nil {
		t.Fatal(err)
	}

	var item models.SaleItem
	if err := f.db.Where("sale_id = ?", receipt.Sale.ID).First(&item).Error; err != nil {
		t.Fatal(err)
	}
	if !item.UnitPrice.Equal(d("20")) || !item.UnitCost.Equal(d("12")) || item.ProductName != p.Name || !item.LineProfit.Equal(d("8")) {
		t.Fatalf("snapshot changed: %+v", item)
	}
}

func TestInputValidationTouchesNothing(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 10, "1.00", "2.00")
	ctx := context.Background()

	if _, err := f.proc.ProcessSale(ctx, f.request(models.PaymentPix, nil)); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty cart: %v", err)
	}

	var qty *InvalidQuantityError
	if _, err := f.proc.ProcessSale(ctx, f.request(models.PaymentPix, nil, Line{p.ID, 0})); !errors.As(err, &qty) {
		t.Fatalf("zero quantity: %v", err)
	}
	if _, err := f.proc.ProcessSale(ctx, f.request(models.PaymentPix, nil, Line{p.ID, -2})); !errors.As(err, &qty) {
		t.Fatalf("negative quantity: %v", err)
	}

	var disc *InvalidDiscountError
	req := f.request(models.PaymentPix, nil, Line{p.ID, 1})
	req.Discount = d("-1")
	if _, err := f.proc.ProcessSale(ctx, req); !errors.As(err, &disc) {
		t.Fatalf("negative discount: %v", err)
	}
	req.Discount = d("2.01")
	if _, err := f.proc.ProcessSale(ctx, req); !errors.As(err, &disc) || !disc.Subtotal.Equal(d("2")) {
		t.Fatalf("discount above subtotal: %v", err)
	}
	req.Discount = d("2.00")
	receipt, err := f.proc.ProcessSale(ctx, req)
	if err != nil || !receipt.Sale.Total.IsZero() {
		t.Fatalf("full discount: %v", err)
	}

	var enum *models.EnumError
	if _, err := f.proc.ProcessSale(ctx, f.request("barter", nil, Line{p.ID, 1})); !errors.As(err, &enum) {
		t.Fatalf("unknown payment method: %v", err)
	}
	if _, err := f.proc.ProcessSale(ctx, f.request(models.PaymentPix, dp("-1"), Line{p.ID, 1})); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("negative tender: %v", err)
	}

	if testhelpers.Stock(t, f.db, p.ID) != 9 || f.saleCount(t) != 1 {
		t.Fatal("rejected requests left side effects")
	}
}

func TestOversizedQuantitiesAreInvalid(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 10, "1.00", "2.00")
	ctx := context.Background()

	cases := []struct {
		name  string
		lines []Line
	}{
		{"single line over the cap", []Line{{p.ID, MaxQuantity + 1}}},
		{"lines that would wrap int", []Line{{p.ID, math.MaxInt}, {p.ID, 1}}},
		{"lines summing over the cap", []Line{{p.ID, MaxQuantity}, {p.ID, 1}}},
	}
	for _, tc := range cases {
		var qty *InvalidQuantityError
		_, err := f.proc.ProcessSale(ctx, f.request(models.PaymentDebit, nil, tc.lines...))
		if !errors.As(err, &qty) || qty.ProductID != p.ID {
			t.Errorf("%s: got %v, want InvalidQuantityError", tc.name, err)
		}
		if Outcome(err) != "invalid" {
			t.Errorf("%s: outcome = %s", tc.name, Outcome(err))
		}
	}
	if testhelpers.Stock(t, f.db, p.ID) != 10 || f.saleCount(t) != 0 {
		t.Fatal("rejected carts left side effects")
	}
}

func TestLateFailureRollsBackDecrements(t *testing.T) {
	f := newFixture(t)
	wine := testhelpers.CreateProduct(t, f.db, "VIN", 10, "20.00", "34.90")
	beer := testhelpers.CreateProduct(t, f.db, "CER", 10, "3.10", "5.50")

	// Stock is already decremented and the sale header written when items fail.
	failItems := func(tx *gorm.DB) {
		if tx.Statement.Table == "sale_items" {
			tx.AddError(errors.New("disk full"))
		}
	}
	if err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_items", failItems); err != nil {
		t.Fatal(err)
	}

	_, err := f.proc.ProcessSale(context.Background(), f.request(models.PaymentCredit, nil, Line{wine.ID, 2}, Line{beer.ID, 3}))
	var infra *InfrastructureError
	if !errors.As(err, &infra) {
		t.Fatalf("expected InfrastructureError, got %v", err)
	}
	if testhelpers.Stock(t, f.db, wine.ID) != 10 || testhelpers.Stock(t, f.db, beer.ID) != 10 {
		t.Fatal("decrements survived a failed checkout")
	}
	if f.saleCount(t) != 0 {
		t.Fatal("sale header survived a failed checkout")
	}
}

func TestMissingOrInactiveProduct(t *testing.T) {
	f := newFixture(t)
	p := testhelpers.CreateProduct(t, f.db, "A", 10, "1.00", "2.00")
	gone := testhelpers.CreateProduct(t, f.db, "B", 10, "1.00", "2.00")
	if err := catalog.New(f.db).Deactivate(context.Background(), gone.ID); err != nil {
		t.Fatal(err)
	}

	var nf *ProductNotFoundError
	_, err := f.proc.ProcessSale(context.Background(), f.request(models.PaymentPix, nil, Line{p.ID, 1}, Line{999, 1}))
	if !errors.As(err, &nf) || nf.ProductID != 999 {
		t.Fatalf("missing product: %v", err)
	}
	_, err = f.proc.ProcessSale(context.Background(), f.request(models.PaymentPix, nil, Line{gone.ID, 1}))
	if !errors.As(err, &nf) || nf.ProductID != gone.ID {
		t.Fatalf("inactive product: %v", err)
	}
	if testhelpers.Stock(t, f.db, p.ID) != 10 {
		t.Fatal("stock changed")
	}
}

// fakeStore runs fn against in-memory rows and only keeps its writes when
// fn succeeds, like a transaction would.
type fakeStore struct {
	products   map[uint]models.Product
	decErr     error
	insertErr  error
	block      bool
	committed  []*models.Sale
	decrements map[uint]int
}

type fakeTx struct {
	s          *fakeStore
	decrements map[uint]int
	sales      []*models.Sale
}

func (s *fakeStore) Transact(ctx context.Context, fn func(Catalog, Ledger) error) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	tx := &fakeTx{s: s, decrements: map[uint]int{}}
	if err := fn(tx, tx); err != nil {
		return err
	}
	if s.decrements == nil {
		s.decrements = map[uint]int{}
	}
	for id, q := range tx.decrements {
		s.decrements[id] += q
	}
	s.committed = append(s.committed, tx.sales...)
	return nil
}

func (t *fakeTx) GetProductForUpdate(_ context.Context, id uint) (*models.Product, error) {
	p, ok := t.s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (t *fakeTx) DecrementStock(_ context.Context, id uint, qty int) error {
	if t.s.decErr != nil {
		return t.s.decErr
	}
	t.decrements[id] += qty
	return nil
}

func (t *fakeTx) InsertSale(_ context.Context, sale *models.Sale) error {
	if t.s.insertErr != nil {
		return t.s.insertErr
	}
	t.sales = append(t.sales, sale)
	return nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: map[uint]models.Product{
		1: {ID: 1, Name: "Vinho", SalePrice: d("10"), CostPrice: d("6"), StockQty: 5, Active: true},
	}}
}

func pixRequest() Request {
	return Request{CashierID: 1, PaymentMethod: models.PaymentPix, Items: []Line{{ProductID: 1, Quantity: 2}}}
}

func TestConflictErrorsAreRetryable(t *testing.T) {
	for name, cause := range map[string]error{
		"guarded update missed": catalog.ErrStockConflict,
		"mysql deadlock":        &mysql.MySQLError{Number: 1213, Message: "Deadlock found"},
	} {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			store.decErr = cause
			_, err := NewProcessor(store).ProcessSale(context.Background(), pixRequest())
			if !errors.Is(err, ErrConcurrencyConflict) {
				t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
			}
			if !errors.Is(err, cause) {
				t.Fatalf("cause lost: %v", err)
			}
			if len(store.committed) != 0 || len(store.decrements) != 0 {
				t.Fatal("conflict committed writes")
			}
		})
	}
}

func TestTimeoutIsReportedAsConflict(t *testing.T) {
	store := newFakeStore()
	store.block = true
	_, err := NewProcessor(store, WithTimeout(20*time.Millisecond)).ProcessSale(context.Background(), pixRequest())
	if !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}
}

func TestCallerCancellationPassesThrough(t *testing.T) {
	store := newFakeStore()
	store.block = true
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProcessor(store).ProcessSale(ctx, pixRequest())
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStoreFaultIsInfrastructureError(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("connection refused")
	store.insertErr = boom
	_, err := NewProcessor(store).ProcessSale(context.Background(), pixRequest())

	var infra *InfrastructureError
	if !errors.As(err, &infra) || !errors.Is(err, boom) {
		t.Fatalf("expected InfrastructureError, got %v", err)
	}
	if len(store.committed) != 0 || len(store.decrements) != 0 {
		t.Fatal("fault committed writes")
	}
}

type recorder struct {
	mu       sync.Mutex
	outcomes []string
	receipts []*Receipt
}

func (r *recorder) ObserveCheckout(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recorder) SaleCompleted(_ context.Context, rc *Receipt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append(r.receipts, rc)
}

func TestObserverAndNotifier(t *testing.T) {
	rec := &recorder{}
	store := newFakeStore()
	proc := NewProcessor(store, WithObserver(rec), WithNotifier(rec))

	if _, err := proc.ProcessSale(context.Background(), pixRequest()); err != nil {
		t.Fatal(err)
	}
	big := pixRequest()
	big.Items[0].Quantity = 50
	if _, err := proc.ProcessSale(context.Background(), big); err == nil {
		t.Fatal("expected out of stock")
	}

	if len(rec.outcomes) != 2 || rec.outcomes[0] != "ok" || rec.outcomes[1] != "out_of_stock" {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
	if len(rec.receipts) != 1 || !rec.receipts[0].Sale.Total.Equal(d("20")) {
		t.Fatalf("receipts = %+v", rec.receipts)
	}
	if store.decrements[1] != 2 {
		t.Fatalf("decrements = %v", store.decrements)
	}
}

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"ok":                   nil,
		"invalid":              ErrEmptyCart,
		"conflict":             &conflictError{cause: catalog.ErrStockConflict},
		"not_found":            &ProductNotFoundError{ProductID: 1},
		"insufficient_payment": &InsufficientPaymentError{},
		"error":                &InfrastructureError{Err: errors.New("x")},
		"canceled":             context.Canceled,
	}
	for want, err := range cases {
		if got := Outcome(err); got != want {
			t.Errorf("Outcome(%v) = %q, want %q", err, got, want)
		}
	}
}
