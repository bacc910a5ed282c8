package main

import (
	"log"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"
	"storefront/pkg/metrics"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無くても起動できる（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatal(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Contact{},
	); err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	contactRepo := infraRepo.NewContactGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(
		cfg, userRepo, validator.NewAuthValidator(),
		usecase.BcryptHasher{}, usecase.BcryptVerifier{},
		idGen, clock,
	)
	productUC := usecase.NewProductUsecase(productRepo, idGen, clock)
	orderUC := usecase.NewOrderUsecase(txManager, idGen, clock, orderMetrics)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager)
	contactUC := usecase.NewContactUsecase(contactRepo, idGen, clock)

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		Contact:      handler.NewContactHandler(contactUC),
	}

	//Server起動
	e := server.New(cfg, userRepo, h)
	if err := server.Start(e, cfg); err != nil {
		log.Fatal(err)
	}
}
