package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/pkg/metrics"

	"github.com/shopspring/decimal"
)

// 配送先の国が未指定のときのデフォルト
const defaultCountry = "Nigeria"

// 注文番号の採番リトライ上限
const orderNumberAttempts = 5

type OrderUsecase struct {
	tx      repo.TransactionManager
	idGen   IDGenerator
	clock   Clock
	metrics *metrics.OrderMetrics
	randInt func(n int) int
}

func NewOrderUsecase(tx repo.TransactionManager, idGen IDGenerator, clock Clock, m *metrics.OrderMetrics) *OrderUsecase {
	return &OrderUsecase{
		tx:      tx,
		idGen:   idGen,
		clock:   clock,
		metrics: m,
		randInt: rand.Intn,
	}
}

type OrderItemInput struct {
	ProductID string
	Quantity  int64
}

type ShippingAddressInput struct {
	Name    string
	Phone   string
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

type PlaceOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress ShippingAddressInput
	PaymentMethod   string
	Notes           string
}

type OrderItemOutput struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	ImageURL  string          `json:"image_url"`
}

// 注文の持ち主の公開フィールドだけ（パスワード等は出さない）
type OrderUserOutput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type OrderOutput struct {
	ID              string                `json:"id"`
	OrderNumber     string                `json:"order_number"`
	UserID          string                `json:"user_id"`
	Status          string                `json:"status"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
	PaymentStatus   string                `json:"payment_status"`
	Notes           string                `json:"notes,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []OrderItemOutput     `json:"items"`
	User            *OrderUserOutput      `json:"user,omitempty"`
}

type PaginationOutput struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int64 `json:"total_pages"`
	TotalOrders int64 `json:"total_orders"`
}

type OrderListOutput struct {
	Orders     []OrderOutput    `json:"orders"`
	Pagination PaginationOutput `json:"pagination"`
}

// PlaceOrder は検証→価格確定→在庫減算→注文保存を1トランザクションでやる。
// 途中でどれか失敗したら在庫も注文も全部ロールバック（部分適用なし）
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "order must contain at least one item")
	}

	addr := in.ShippingAddress
	if strings.TrimSpace(addr.Name) == "" ||
		strings.TrimSpace(addr.Phone) == "" ||
		strings.TrimSpace(addr.Street) == "" ||
		strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.State) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "incomplete shipping address")
	}

	method := model.PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = model.PaymentCashOnDelivery
	}
	switch method {
	case model.PaymentCashOnDelivery, model.PaymentBankTransfer, model.PaymentCard:
	default:
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment method")
	}

	country := strings.TrimSpace(addr.Country)
	if country == "" {
		country = defaultCountry
	}

	var out OrderOutput
	insufficient := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if user == nil || !user.IsActive {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}

		orderItems := make([]model.OrderItem, 0, len(in.Items))
		total := decimal.Zero

		for _, it := range in.Items {
			if it.ProductID == "" || it.Quantity < 1 {
				return NewHTTPError(http.StatusBadRequest, "each item must have a valid product id and quantity")
			}

			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, fmt.Sprintf("product not found: %s", it.ProductID))
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			// 在庫減算（stock >= qty の行だけUPDATE、足りなければ全体を失敗させる）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				insufficient = true
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
					"insufficient stock for %s: available %d, requested %d",
					p.Name, p.Stock, it.Quantity,
				))
			}

			// 注文時点のスナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:         p.ID,
				NameSnapshot:      p.Name,
				UnitPriceSnapshot: p.Price,
				Quantity:          it.Quantity,
				ImageURLSnapshot:  p.ImageURL,
			})

			total = total.Add(p.Price.Mul(decimal.NewFromInt(it.Quantity)))
		}

		now := u.clock.Now()

		orderNumber, err := u.allocateOrderNumber(ctx, r, now)
		if err != nil {
			return err
		}

		order := model.Order{
			ID:          u.idGen.NewID(),
			OrderNumber: orderNumber,
			UserID:      userID,
			TotalAmount: total,
			Status:      model.OrderStatusPending,
			ShippingAddress: model.ShippingAddress{
				Name:    strings.TrimSpace(addr.Name),
				Phone:   strings.TrimSpace(addr.Phone),
				Street:  strings.TrimSpace(addr.Street),
				City:    strings.TrimSpace(addr.City),
				State:   strings.TrimSpace(addr.State),
				ZipCode: strings.TrimSpace(addr.ZipCode),
				Country: country,
			},
			PaymentMethod: method,
			PaymentStatus: model.PaymentStatusPending,
			Notes:         strings.TrimSpace(in.Notes),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := r.Orders().Create(ctx, order); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(order, orderItems, user)
		return nil
	})

	if err != nil {
		if insufficient {
			u.metrics.StockRejections.Inc()
		}
		return OrderOutput{}, err
	}

	u.metrics.Placed.Inc()
	return out, nil
}

// CancelOrder は持ち主によるキャンセル。
// shipped/delivered/cancelled からはキャンセルできない。
// キャンセル成立時は明細の数量ぶん在庫を戻す
func (u *OrderUsecase) CancelOrder(ctx context.Context, orderID string, actorID string) (OrderOutput, error) {
	if actorID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.UserID != actorID {
			return NewHTTPError(http.StatusForbidden, "access denied")
		}

		// 終端ガード
		switch o.Status {
		case model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("cannot cancel order with status: %s", o.Status))
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 在庫戻し（注文時に引いた数量と同じだけ）
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		o.Status = model.OrderStatusCancelled

		owner, err := r.Users().FindByID(ctx, o.UserID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items, owner)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.metrics.Cancelled.Inc()
	return out, nil
}

// ListMyOrders は自分の注文履歴（新しい順・ページング）
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string, page int, limit int) (OrderListOutput, error) {
	if userID == "" {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items, nil))
		}

		out = OrderListOutput{
			Orders: outs,
			Pagination: PaginationOutput{
				CurrentPage: page,
				TotalPages:  (total + int64(limit) - 1) / int64(limit),
				TotalOrders: total,
			},
		}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// GetOrder は1件取得。持ち主か管理者だけが見られる
func (u *OrderUsecase) GetOrder(ctx context.Context, orderID string, actorID string, actorRole model.Role) (OrderOutput, error) {
	if actorID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.UserID != actorID && actorRole != model.RoleAdmin {
			return NewHTTPError(http.StatusForbidden, "access denied")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		owner, err := r.Users().FindByID(ctx, o.UserID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items, owner)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 注文番号を採番する。unique index＋事前チェックで衝突したら振り直し
func (u *OrderUsecase) allocateOrderNumber(ctx context.Context, r repo.TxRepos, now time.Time) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		n := FormatOrderNumber(now, u.randInt(1000))
		exists, err := r.Orders().ExistsByOrderNumber(ctx, n)
		if err != nil {
			return "", NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !exists {
			return n, nil
		}
	}
	return "", NewHTTPError(http.StatusInternalServerError, "could not allocate order number")
}

// FormatOrderNumber は表示用の注文番号。
// CVE- + タイムスタンプ(ms)の下8桁 + 3桁のゼロ埋め乱数
func FormatOrderNumber(now time.Time, random int) string {
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ts) > 8 {
		ts = ts[len(ts)-8:]
	}
	return fmt.Sprintf("CVE-%s%03d", ts, random)
}

func toOrderOutput(o model.Order, items []model.OrderItem, owner *model.User) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.NameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURLSnapshot,
		})
	}

	out := OrderOutput{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}

	if owner != nil {
		out.User = &OrderUserOutput{
			Name:  owner.Name,
			Email: owner.Email,
			Phone: owner.Phone,
		}
	}

	return out
}
