package main

import (
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/events"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/middleware"
	"app/internal/payment"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect failed")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.Address{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
		&model.PaymentMethod{},
		&model.WishlistItem{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	pmRepo := infraRepo.NewPaymentMethodGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//イベント発行（ブローカー未設定ならNoop）
	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Msg("kafka publisher enabled")
	}

	//決済ゲートウェイ（モック）
	gateway := payment.NewMockGateway()

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	pmUC := usecase.NewPaymentMethodUsecase(pmRepo)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, cartRepo, cartRepo, productRepo, addressRepo, gateway, publisher, logger)
	orderUC := usecase.NewOrderUsecase(txManager, publisher, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo, publisher, logger)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, rtRepo, auditRepo)

	//Handler生成
	refreshTTL := 30 * 24 * time.Hour
	cookieSecure := cfg.GoEnv != "dev"

	authH := handler.NewAuthHandler(authUC, refreshTTL, cookieSecure)
	productH := handler.NewProductHandler(productUC)
	cartH := handler.NewCartHandler(cartUC)
	addressH := handler.NewAddressHandler(addressUC)
	pmH := handler.NewPaymentMethodHandler(pmUC)
	wishlistH := handler.NewWishlistHandler(wishlistUC)
	orderH := handler.NewOrderHandler(checkoutUC, orderUC)
	adminProductH := handler.NewAdminProductHandler(productUC)
	adminOrderH := handler.NewAdminOrderHandler(adminOrderUC)
	adminUserH := handler.NewAdminUserHandler(adminUserUC)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())

	//ルート登録
	productH.RegisterRoutes(e)
	authH.RegisterRoutes(e, cfg, userRepo)
	cartH.RegisterRoutes(e, cfg, userRepo)
	addressH.RegisterRoutes(e, cfg, userRepo)
	pmH.RegisterRoutes(e, cfg, userRepo)
	wishlistH.RegisterRoutes(e, cfg, userRepo)
	orderH.RegisterRoutes(e, cfg, userRepo)
	adminProductH.RegisterRoutes(e, cfg, userRepo)
	adminOrderH.RegisterRoutes(e, cfg, userRepo)
	adminUserH.RegisterRoutes(e, cfg, userRepo)

	addr := ":" + cfg.Port
	if cfg.Port != "" && cfg.Port[0] == ':' {
		addr = cfg.Port
	}

	logger.Info().Str("addr", addr).Str("env", cfg.GoEnv).Msg("server starting")
	if err := e.Start(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
