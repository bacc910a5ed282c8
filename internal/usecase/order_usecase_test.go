package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type orderTestDeps struct {
	uc        *OrderUsecase
	tx        *TxManagerMock
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	products  *ProductRepoMock
	inventory *InventoryRepoMock
	users     *UserRepoMock
	metrics   *metrics.OrderMetrics
	clock     *fixedClock
}

func newOrderDeps() *orderTestDeps {
	orders := &OrderRepoMock{}
	items := &OrderItemRepoMock{}
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	users := &UserRepoMock{}

	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:     orders,
		orderItems: items,
		products:   products,
		inventory:  inventory,
		users:      users,
	}}
	tx.On("WithinTx", mock.Anything).Maybe()

	m := metrics.NewOrderMetrics(prometheus.NewRegistry())
	clock := testClock()

	uc := NewOrderUsecase(tx, &seqIDGen{}, clock, m)
	uc.randInt = func(n int) int { return 42 }

	return &orderTestDeps{
		uc: uc, tx: tx,
		orders: orders, items: items, products: products,
		inventory: inventory, users: users,
		metrics: m, clock: clock,
	}
}

func activeUser(id string) *model.User {
	return &model.User{
		ID:       id,
		Email:    "taro@example.com",
		Name:     "Taro",
		Phone:    "08012345678",
		Role:     model.RoleCustomer,
		IsActive: true,
	}
}

func validAddress() ShippingAddressInput {
	return ShippingAddressInput{
		Name:   "Taro Yamada",
		Phone:  "08012345678",
		Street: "1-2-3 Shibuya",
		City:   "Tokyo",
		State:  "Tokyo",
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	d := newOrderDeps()
	ctx := context.Background()

	price := decimal.RequireFromString("2500.00")
	product := model.Product{ID: "p1", Name: "Classic T-Shirt", Price: price, ImageURL: "/img/t.jpg", Stock: 10}

	d.users.On("FindByID", mock.Anything, "u1").Return(activeUser("u1"), nil)
	d.products.On("FindByID", mock.Anything, "p1").Return(product, nil)
	d.inventory.On("DecreaseStockIfEnough", mock.Anything, "p1", int64(2)).Return(true, nil)
	d.orders.On("ExistsByOrderNumber", mock.Anything, mock.Anything).Return(false, nil)

	d.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.UserID == "u1" &&
			o.Status == model.OrderStatusPending &&
			o.PaymentStatus == model.PaymentStatusPending &&
			o.TotalAmount.Equal(decimal.RequireFromString("5000.00"))
	})).Return(nil)
	d.items.On("CreateBulk", mock.Anything, mock.Anything, mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 &&
			items[0].ProductID == "p1" &&
			items[0].NameSnapshot == "Classic T-Shirt" &&
			items[0].UnitPriceSnapshot.Equal(price) &&
			items[0].Quantity == 2
	})).Return(nil)

	out, err := d.uc.PlaceOrder(ctx, "u1", PlaceOrderInput{
		Items:           []OrderItemInput{{ProductID: "p1", Quantity: 2}},
		ShippingAddress: validAddress(),
	})

	assert.NoError(t, err)
	assert.Equal(t, FormatOrderNumber(d.clock.t, 42), out.OrderNumber)
	assert.Equal(t, "pending", out.Status)
	// 支払い方法未指定なら代引きになる
	assert.Equal(t, "cash_on_delivery", out.PaymentMethod)
	// 国未指定ならデフォルト
	assert.Equal(t, "Nigeria", out.ShippingAddress.Country)
	assert.True(t, out.TotalAmount.Equal(decimal.RequireFromString("5000.00")))
	assert.Len(t, out.Items, 1)
	assert.NotNil(t, out.User)
	assert.Equal(t, "taro@example.com", out.User.Email)

	assert.Equal(t, float64(1), testutil.ToFloat64(d.metrics.Placed))
	d.orders.AssertExpectations(t)
	d.items.AssertExpectations(t)
	d.inventory.AssertExpectations(t)
}

func TestPlaceOrder_InsufficientStock_NothingPersisted(t *testing.T) {
	d := newOrderDeps()
	ctx := context.Background()

	p1 := model.Product{ID: "p1", Name: "Classic T-Shirt", Price: decimal.RequireFromString("2500.00"), Stock: 10}
	p2 := model.Product{ID: "p2", Name: "Denim Jeans", Price: decimal.RequireFromString("8000.00"), Stock: 1}

	d.users.On("FindByID", mock.Anything, "u1").Return(activeUser("u1"), nil)
	d.products.On("FindByID", mock.Anything, "p1").Return(p1, nil)
	d.products.On("FindByID", mock.Anything, "p2").Return(p2, nil)
	d.inventory.On("DecreaseStockIfEnough", mock.Anything, "p1", int64(2)).Return(true, nil)
	// 2個目の商品で在庫不足 → トランザクションごと失敗
	d.inventory.On("DecreaseStockIfEnough", mock.Anything, "p2", int64(3)).Return(false, nil)

	_, err := d.uc.PlaceOrder(ctx, "u1", PlaceOrderInput{
		Items: []OrderItemInput{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
		ShippingAddress: validAddress(),
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "insufficient stock for Denim Jeans: available 1, requested 3", he.Message)

	d.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	d.items.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, float64(1), testutil.ToFloat64(d.metrics.StockRejections))
	assert.Equal(t, float64(0), testutil.ToFloat64(d.metrics.Placed))
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	d := newOrderDeps()

	_, err := d.uc.PlaceOrder(context.Background(), "u1", PlaceOrderInput{
		ShippingAddress: validAddress(),
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "order must contain at least one item", he.Message)
}

func TestPlaceOrder_IncompleteAddress(t *testing.T) {
	d := newOrderDeps()

	addr := validAddress()
	addr.City = "  "

	_, err := d.uc.PlaceOrder(context.Background(), "u1", PlaceOrderInput{
		Items:           []OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: addr,
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "incomplete shipping address", he.Message)
}

func TestPlaceOrder_InvalidPaymentMethod(t *testing.T) {
	d := newOrderDeps()

	_, err := d.uc.PlaceOrder(context.Background(), "u1", PlaceOrderInput{
		Items:           []OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: validAddress(),
		PaymentMethod:   "bitcoin",
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "invalid payment method", he.Message)
}

func TestPlaceOrder_InactiveUser(t *testing.T) {
	d := newOrderDeps()

	u := activeUser("u1")
	u.IsActive = false
	d.users.On("FindByID", mock.Anything, "u1").Return(u, nil)

	_, err := d.uc.PlaceOrder(context.Background(), "u1", PlaceOrderInput{
		Items:           []OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: validAddress(),
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
	assert.Equal(t, "user not found", he.Message)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	d := newOrderDeps()

	d.users.On("FindByID", mock.Anything, "u1").Return(activeUser("u1"), nil)
	d.products.On("FindByID", mock.Anything, "zzz").Return(model.Product{}, repo.ErrNotFound)

	_, err := d.uc.PlaceOrder(context.Background(), "u1", PlaceOrderInput{
		Items:           []OrderItemInput{{ProductID: "zzz", Quantity: 1}},
		ShippingAddress: validAddress(),
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
	assert.Equal(t, "product not found: zzz", he.Message)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	d := newOrderDeps()

	d.users.On("FindByID", mock.Anything, "u1").Return(activeUser("u1"), nil)

	_, err := d.uc.PlaceOrder(context.Background(), "u1", PlaceOrderInput{
		Items:           []OrderItemInput{{ProductID: "p1", Quantity: 0}},
		ShippingAddress: validAddress(),
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "each item must have a valid product id and quantity", he.Message)
}

func TestPlaceOrder_OrderNumberRetryExhausted(t *testing.T) {
	d := newOrderDeps()

	product := model.Product{ID: "p1", Name: "Classic T-Shirt", Price: decimal.RequireFromString("2500.00"), Stock: 10}
	d.users.On("FindByID", mock.Anything, "u1").Return(activeUser("u1"), nil)
	d.products.On("FindByID", mock.Anything, "p1").Return(product, nil)
	d.inventory.On("DecreaseStockIfEnough", mock.Anything, "p1", int64(1)).Return(true, nil)
	// 毎回衝突 → リトライ上限で諦める
	d.orders.On("ExistsByOrderNumber", mock.Anything, mock.Anything).Return(true, nil)

	_, err := d.uc.PlaceOrder(context.Background(), "u1", PlaceOrderInput{
		Items:           []OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: validAddress(),
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.Equal(t, "could not allocate order number", he.Message)
	d.orders.AssertNumberOfCalls(t, "ExistsByOrderNumber", 5)
	d.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFormatOrderNumber(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	n := FormatOrderNumber(now, 7)

	assert.Len(t, n, 4+8+3)
	assert.Equal(t, "CVE-", n[:4])
	assert.Equal(t, "007", n[len(n)-3:])
}

func TestCancelOrder_Success_RestocksItems(t *testing.T) {
	d := newOrderDeps()

	order := model.Order{ID: "o1", UserID: "u1", Status: model.OrderStatusPending}
	items := []model.OrderItem{
		{OrderID: "o1", ProductID: "p1", NameSnapshot: "Classic T-Shirt", Quantity: 2},
		{OrderID: "o1", ProductID: "p2", NameSnapshot: "Denim Jeans", Quantity: 1},
	}

	d.orders.On("FindByID", mock.Anything, "o1").Return(order, nil)
	d.items.On("ListByOrderID", mock.Anything, "o1").Return(items, nil)
	d.orders.On("UpdateStatus", mock.Anything, "o1", model.OrderStatusCancelled).Return(nil)
	d.inventory.On("IncreaseStock", mock.Anything, "p1", int64(2)).Return(nil)
	d.inventory.On("IncreaseStock", mock.Anything, "p2", int64(1)).Return(nil)
	d.users.On("FindByID", mock.Anything, "u1").Return(activeUser("u1"), nil)

	out, err := d.uc.CancelOrder(context.Background(), "o1", "u1")

	assert.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(d.metrics.Cancelled))
	d.inventory.AssertExpectations(t)
}

func TestCancelOrder_TerminalStatusRejected(t *testing.T) {
	for _, status := range []model.OrderStatus{
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
		model.OrderStatusCancelled,
	} {
		d := newOrderDeps()
		d.orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: "u1", Status: status}, nil)

		_, err := d.uc.CancelOrder(context.Background(), "o1", "u1")

		he, ok := AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Status)
		assert.Equal(t, "cannot cancel order with status: "+string(status), he.Message)
		d.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestCancelOrder_ForeignOrderForbidden(t *testing.T) {
	d := newOrderDeps()

	d.orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: "someone-else", Status: model.OrderStatusPending}, nil)

	_, err := d.uc.CancelOrder(context.Background(), "o1", "u1")

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Status)
	assert.Equal(t, "access denied", he.Message)
}

func TestGetOrder_OwnerAndAdminAllowed(t *testing.T) {
	order := model.Order{ID: "o1", UserID: "u1", Status: model.OrderStatusPending}

	cases := []struct {
		name    string
		actorID string
		role    model.Role
	}{
		{"owner", "u1", model.RoleCustomer},
		{"admin", "staff", model.RoleAdmin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newOrderDeps()
			d.orders.On("FindByID", mock.Anything, "o1").Return(order, nil)
			d.items.On("ListByOrderID", mock.Anything, "o1").Return([]model.OrderItem{}, nil)
			d.users.On("FindByID", mock.Anything, "u1").Return(activeUser("u1"), nil)

			out, err := d.uc.GetOrder(context.Background(), "o1", tc.actorID, tc.role)

			assert.NoError(t, err)
			assert.Equal(t, "o1", out.ID)
		})
	}
}

func TestGetOrder_ForeignCustomerForbidden(t *testing.T) {
	d := newOrderDeps()

	d.orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: "u1"}, nil)

	_, err := d.uc.GetOrder(context.Background(), "o1", "u2", model.RoleCustomer)

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Status)
	assert.Equal(t, "access denied", he.Message)
}

// 注文後に商品が改名・値上げされても、注文明細は注文時点の内容のまま
func TestOrderItems_SnapshotsSurviveProductEdits(t *testing.T) {
	d := newOrderDeps()
	ctx := context.Background()

	oldPrice := decimal.RequireFromString("2500.00")
	product := model.Product{ID: "p1", Name: "Classic T-Shirt", Price: oldPrice, ImageURL: "/img/t.jpg", Stock: 10}

	d.users.On("FindByID", mock.Anything, "u1").Return(activeUser("u1"), nil)
	d.products.On("FindByID", mock.Anything, "p1").Return(product, nil)
	d.inventory.On("DecreaseStockIfEnough", mock.Anything, "p1", int64(2)).Return(true, nil)
	d.orders.On("ExistsByOrderNumber", mock.Anything, mock.Anything).Return(false, nil)

	var savedOrder model.Order
	var savedItems []model.OrderItem
	d.orders.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		savedOrder = args.Get(1).(model.Order)
	}).Return(nil)
	d.items.On("CreateBulk", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		savedItems = args.Get(2).([]model.OrderItem)
	}).Return(nil)

	_, err := d.uc.PlaceOrder(ctx, "u1", PlaceOrderInput{
		Items:           []OrderItemInput{{ProductID: "p1", Quantity: 2}},
		ShippingAddress: validAddress(),
	})
	assert.NoError(t, err)

	// 商品側を改名・値上げ
	products := &ProductRepoMock{}
	productUC := newProductUsecase(products)
	products.On("FindByID", mock.Anything, "p1").Return(product, nil)
	products.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := productUC.AdminUpdate(ctx, "p1", ProductInput{
		Name:  "Vintage T-Shirt",
		Price: decimal.RequireFromString("9999.00"),
		Stock: 10,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Vintage T-Shirt", updated.Name)

	// 保存済みの明細から注文を読み直しても注文時点の内容のまま
	d.orders.On("FindByID", mock.Anything, savedOrder.ID).Return(savedOrder, nil)
	d.items.On("ListByOrderID", mock.Anything, savedOrder.ID).Return(savedItems, nil)

	out, err := d.uc.GetOrder(ctx, savedOrder.ID, "u1", model.RoleCustomer)

	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, "Classic T-Shirt", out.Items[0].Name)
	assert.True(t, out.Items[0].UnitPrice.Equal(oldPrice))
	assert.Equal(t, "/img/t.jpg", out.Items[0].ImageURL)
	assert.True(t, out.TotalAmount.Equal(decimal.RequireFromString("5000.00")))
}

func TestListMyOrders_Pagination(t *testing.T) {
	d := newOrderDeps()

	orders := []model.Order{{ID: "o1", UserID: "u1"}, {ID: "o2", UserID: "u1"}}
	d.orders.On("ListByUserID", mock.Anything, "u1", 2, 10).Return(orders, int64(25), nil)
	d.items.On("ListByOrderID", mock.Anything, mock.Anything).Return([]model.OrderItem{}, nil)

	out, err := d.uc.ListMyOrders(context.Background(), "u1", 2, 10)

	assert.NoError(t, err)
	assert.Len(t, out.Orders, 2)
	assert.Equal(t, 2, out.Pagination.CurrentPage)
	assert.Equal(t, int64(3), out.Pagination.TotalPages)
	assert.Equal(t, int64(25), out.Pagination.TotalOrders)
}
