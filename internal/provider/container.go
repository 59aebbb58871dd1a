package provider

import (
	"time"

	"github.com/voyago-next/internal/cache"
	"github.com/voyago-next/internal/config"
	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/gateway"
	"github.com/voyago-next/internal/inventory"
	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/queue"
	"github.com/voyago-next/internal/repository"
	"github.com/voyago-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AgentRepo       repository.AgentRepository
	QuoteRepo       repository.QuoteRepository
	RateRecordRepo  repository.RateRecordRepository
	PaymentRepo     repository.PaymentRepository
	AllocationRepo  repository.FundAllocationRepository
	CommissionRepo  repository.CommissionRepository
	BookingTaskRepo repository.BookingTaskRepository

	// Ports
	InventoryRegistry *inventory.Registry
	PaymentGateway    gateway.PaymentGateway
	QuoteLocker       *cache.QuoteLocker

	// Services
	PricingPolicy         service.PricingPolicy
	RateMatcherService    *service.RateMatcherService
	RateCatalogService    *service.RateCatalogService
	RepricingGuard        *service.RepricingGuard
	FundAllocationService *service.FundAllocationService
	CommissionService     *service.CommissionService
	RefundPolicyService   *service.RefundPolicyService
	BookingDispatcher     *service.BookingDispatcher
	BookingTaskService    *service.BookingTaskService
	QuoteService          *service.QuoteService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
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
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化端口实现
	c.initPorts()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AgentRepo = repository.NewAgentRepository(db)
	c.QuoteRepo = repository.NewQuoteRepository(db)
	c.RateRecordRepo = repository.NewRateRecordRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.AllocationRepo = repository.NewFundAllocationRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.BookingTaskRepo = repository.NewBookingTaskRepository(db)
}

func (c *Container) initPorts() {
	registry := inventory.NewRegistry()
	// 真实渠道客户端在部署侧注册；默认绑定内存实现保证链路可用
	staticProvider := inventory.NewStaticProvider()
	registry.Register(constants.SupplierSourceProviderA, staticProvider)
	registry.Register(constants.SupplierSourceProviderB, staticProvider)
	registry.Register(constants.SupplierSourceProviderC, staticProvider)
	c.InventoryRegistry = registry

	c.PaymentGateway = gateway.NewLoggingGateway()
	c.QuoteLocker = cache.NewQuoteLocker(30 * time.Second)
}

func (c *Container) initServices() {
	cfg := c.Config
	providerTimeout := time.Duration(cfg.Booking.ProviderTimeoutSeconds) * time.Second

	c.PricingPolicy = service.NewPricingPolicy(cfg.Pricing)
	c.RateMatcherService = service.NewRateMatcherService(c.RateRecordRepo, c.QuoteRepo)
	c.RateCatalogService = service.NewRateCatalogService(c.RateRecordRepo)
	c.RepricingGuard = service.NewRepricingGuard(c.InventoryRegistry, providerTimeout)
	c.FundAllocationService = service.NewFundAllocationService(c.AllocationRepo, service.NewFeeSchedule(cfg.Allocation))
	c.CommissionService = service.NewCommissionService(c.CommissionRepo, cfg.Refund.CommissionHoldDays)
	c.RefundPolicyService = service.NewRefundPolicyService(cfg.Refund)
	c.BookingDispatcher = service.NewBookingDispatcher(
		c.InventoryRegistry, c.BookingTaskRepo, c.AllocationRepo, c.QuoteRepo,
		c.QueueClient, providerTimeout, cfg.Booking.BookTaskDueDays, cfg.Booking.ConfirmationDueDays)
	c.BookingTaskService = service.NewBookingTaskService(c.BookingTaskRepo, c.QuoteRepo)
	c.QuoteService = service.NewQuoteService(
		c.QuoteRepo, c.AgentRepo, c.PaymentRepo,
		c.PricingPolicy, c.RateMatcherService, c.RepricingGuard,
		c.FundAllocationService, c.CommissionService, c.RefundPolicyService,
		c.BookingDispatcher, c.PaymentGateway, c.QuoteLocker, c.QueueClient)
}
