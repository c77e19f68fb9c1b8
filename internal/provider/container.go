package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookstore-next/internal/authz"
	"github.com/bookstore-next/internal/cache"
	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/metrics"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/outbox"
	"github.com/bookstore-next/internal/payment"
	"github.com/bookstore-next/internal/payment/httpgateway"
	"github.com/bookstore-next/internal/payment/mock"
	"github.com/bookstore-next/internal/queue"
	"github.com/bookstore-next/internal/repository"
	"github.com/bookstore-next/internal/service"
	"github.com/bookstore-next/internal/shipping"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Metrics     *metrics.Metrics

	// 外部协作方
	Gateway          payment.Gateway
	ShippingResolver shipping.Resolver
	OutboxPublisher  *outbox.KafkaPublisher
	OutboxRelay      *outbox.Relay

	// Repositories
	ProductRepo          repository.ProductRepository
	CartRepo             repository.CartRepository
	OrderRepo            repository.OrderRepository
	PromoCodeRepo        repository.PromoCodeRepository
	PromoCodeUsageRepo   repository.PromoCodeUsageRepository
	SupplierRepo         repository.SupplierRepository
	PurchaseOrderRepo    repository.PurchaseOrderRepository
	StockReservationRepo repository.StockReservationRepository
	OutboxRepo           repository.OutboxRepository

	// Services
	AuthzService         *authz.Service
	TokenService         *service.TokenService
	StockLedger          *service.StockLedger
	ChargeRecovery       *service.ChargeRecovery
	PromoService         *service.PromoService
	ProductService       *service.ProductService
	CartService          *service.CartService
	CheckoutService      *service.CheckoutService
	OrderService         *service.OrderService
	PurchaseOrderService *service.PurchaseOrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		DB:          models.DB,
		QueueClient: queueClient,
	}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.New()
	}

	// 1. 初始化外部协作方
	if err := c.initCollaborators(); err != nil {
		return nil, err
	}

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initCollaborators() error {
	gateway, err := NewPaymentGateway(c.Config.Payment, c.Config.Checkout.Currency)
	if err != nil {
		return fmt.Errorf("init payment gateway failed: %w", err)
	}
	c.Gateway = gateway

	resolver, err := NewShippingResolver(c.Config.Shipping)
	if err != nil {
		return fmt.Errorf("init shipping resolver failed: %w", err)
	}
	c.ShippingResolver = resolver
	return nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PromoCodeRepo = repository.NewPromoCodeRepository(db)
	c.PromoCodeUsageRepo = repository.NewPromoCodeUsageRepository(db)
	c.SupplierRepo = repository.NewSupplierRepository(db)
	c.PurchaseOrderRepo = repository.NewPurchaseOrderRepository(db)
	c.StockReservationRepo = repository.NewStockReservationRepository(db)
	c.OutboxRepo = repository.NewOutboxRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}

	cfg := c.Config
	settings := service.CheckoutSettings{
		Currency:       cfg.Checkout.Currency,
		ReservationTTL: cfg.Checkout.ReservationTTL(),
		PaymentTimeout: cfg.Payment.Timeout(),
		RefundMaxRetry: cfg.Payment.RefundMaxRetry,
	}

	c.TokenService = service.NewTokenService(cfg.UserJWT, cfg.AdminJWT)
	c.StockLedger = service.NewStockLedger(c.DB, c.ProductRepo, c.StockReservationRepo, cfg.Inventory, c.Metrics)
	c.ChargeRecovery = service.NewChargeRecovery(c.StockReservationRepo, c.Gateway, c.QueueClient, settings.PaymentTimeout, settings.RefundMaxRetry)
	c.PromoService = service.NewPromoService(c.PromoCodeRepo, c.PromoCodeUsageRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, time.Duration(cfg.Inventory.SnapshotTTL)*time.Second)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.CheckoutService = service.NewCheckoutService(service.CheckoutDeps{
		DB:              c.DB,
		CartRepo:        c.CartRepo,
		OrderRepo:       c.OrderRepo,
		ReservationRepo: c.StockReservationRepo,
		OutboxRepo:      c.OutboxRepo,
		Ledger:          c.StockLedger,
		Promo:           c.PromoService,
		Shipping:        c.ShippingResolver,
		Gateway:         c.Gateway,
		QueueClient:     c.QueueClient,
		Metrics:         c.Metrics,
		Recovery:        c.ChargeRecovery,
	}, settings)
	c.OrderService = service.NewOrderService(c.DB, c.OrderRepo, c.OutboxRepo, c.StockLedger, c.PromoService, c.Gateway, c.QueueClient, settings)
	c.PurchaseOrderService = service.NewPurchaseOrderService(c.DB, c.PurchaseOrderRepo, c.SupplierRepo, c.ProductRepo, c.OutboxRepo, c.StockLedger, c.QueueClient, c.Metrics)

	if cfg.Outbox.Enabled {
		kafkaClient := outbox.NewClient(cfg.Kafka.Brokers)
		if !kafkaClient.Enabled() {
			logger.Warnw("provider_outbox_relay_disabled", "reason", "kafka_brokers_empty")
		} else {
			c.OutboxPublisher = outbox.NewKafkaPublisher(kafkaClient)
			c.OutboxRelay = outbox.NewRelay(c.OutboxRepo, c.OutboxPublisher, c.Metrics, cfg.Outbox.BatchSize)
		}
	}
	return nil
}

// Close 释放容器持有的连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.OutboxPublisher != nil {
		if err := c.OutboxPublisher.Close(); err != nil {
			logger.Warnw("provider_close_outbox_publisher_failed", "error", err)
		}
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

// NewPaymentGateway 按配置创建支付网关
func NewPaymentGateway(cfg config.PaymentConfig, currency string) (payment.Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "mock":
		return mock.New(mock.Config{
			DeclineAbove: cfg.Mock.DeclineAbove,
			DeclineToken: cfg.Mock.DeclineToken,
		})
	case "http":
		return httpgateway.New(httpgateway.Config{
			BaseURL:   cfg.HTTP.BaseURL,
			SecretKey: cfg.HTTP.SecretKey,
			Currency:  currency,
			Timeout:   cfg.Timeout(),
		})
	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", cfg.Provider)
	}
}

// NewShippingResolver 按配置创建运费解析器
func NewShippingResolver(cfg config.ShippingConfig) (shipping.Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "table":
		return shipping.NewTableResolver(cfg)
	case "http":
		timeout := time.Duration(cfg.HTTP.TimeoutMillis) * time.Millisecond
		return shipping.NewHTTPResolver(cfg.HTTP.BaseURL, cfg.HTTP.APIKey, timeout)
	default:
		return nil, fmt.Errorf("unsupported shipping provider: %s", cfg.Provider)
	}
}
