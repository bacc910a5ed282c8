package repository

import "context"

// stockは注文確定と注文キャンセルだけが動かす
type InventoryRepository interface {
	// 在庫が足りるときだけ減算（stock >= qty の行だけUPDATE）
	DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error)

	// 在庫戻し（キャンセル）
	IncreaseStock(ctx context.Context, productID string, qty int64) error
}
