package main

import (
	"time"

	"github.com/voyago-next/internal/config"
	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加销售顾问
	markup := models.NewMoneyFromFloat(18)
	agents := []models.Agent{
		{
			Name:              "林晓",
			Email:             "lin.xiao@voyago.example",
			CommissionPercent: models.NewMoneyFromFloat(10),
			Active:            true,
		},
		{
			Name:              "Emma Torres",
			Email:             "emma.torres@voyago.example",
			CommissionPercent: models.NewMoneyFromFloat(12),
			MarkupPercent:     &markup,
			Active:            true,
		},
	}
	for _, agent := range agents {
		var existing models.Agent
		if err := models.DB.Where("email = ?", agent.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&agent).Error; err != nil {
				stdLog.Printf("Failed to create agent %s: %v", agent.Email, err)
			} else {
				stdLog.Printf("Created agent: %s", agent.Email)
			}
		} else {
			stdLog.Printf("Agent already exists: %s", agent.Email)
		}
	}

	// 添加费率记录
	now := time.Now()
	validTo := now.AddDate(1, 0, 0)
	single := models.NewMoneyFromFloat(180)
	double := models.NewMoneyFromFloat(150)
	triple := models.NewMoneyFromFloat(130)
	rates := []models.RateRecord{
		{
			Kind:              constants.ItemKindHotel,
			PropertyName:      "海湾花园酒店",
			RoomType:          "豪华海景房",
			Location:          "三亚",
			ValidFrom:         now,
			ValidTo:           validTo,
			BaseRate:          models.NewMoneyFromFloat(150),
			RatePerPerson:     true,
			SingleRate:        &single,
			DoubleRate:        &double,
			TripleRate:        &triple,
			CommissionPercent: models.NewMoneyFromFloat(8),
			Source:            constants.RateSourceOffline,
			SourceRef:         "seed",
		},
		{
			Kind:              constants.ItemKindActivity,
			ActivityName:      "潜水体验半日游",
			Location:          "三亚",
			ValidFrom:         now,
			ValidTo:           validTo,
			BaseRate:          models.NewMoneyFromFloat(88),
			CommissionPercent: models.NewMoneyFromFloat(10),
			Source:            constants.RateSourceProvider,
			SourceRef:         "provider_a",
		},
		{
			Kind:              constants.ItemKindTransfer,
			RouteName:         "机场-酒店接送",
			VehicleType:       "商务车",
			Location:          "三亚",
			ValidFrom:         now,
			ValidTo:           validTo,
			BaseRate:          models.NewMoneyFromFloat(45),
			Source:            constants.RateSourceOffline,
			SourceRef:         "seed",
		},
	}
	for i := range rates {
		record := rates[i]
		var count int64
		models.DB.Model(&models.RateRecord{}).
			Where("kind = ? AND property_name = ? AND activity_name = ? AND route_name = ? AND superseded_at IS NULL",
				record.Kind, record.PropertyName, record.ActivityName, record.RouteName).
			Count(&count)
		if count > 0 {
			stdLog.Printf("Rate record already exists: %s", record.PrimaryName())
			continue
		}
		if err := models.DB.Create(&record).Error; err != nil {
			stdLog.Printf("Failed to create rate record %s: %v", record.PrimaryName(), err)
		} else {
			stdLog.Printf("Created rate record: %s", record.PrimaryName())
		}
	}

	stdLog.Println("Seed completed")
}
