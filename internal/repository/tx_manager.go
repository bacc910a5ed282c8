package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Products() ProductRepository
	Inventory() InventoryRepository
	Users() UserRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがerrorを返したら全部ロールバック（注文と在庫は必ず一緒に確定する）
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
