package main

import (
	"fmt"
	"os"

	"tsu-raid/internal/modules/raid"
	"tsu-raid/internal/pkg/config"
	"tsu-raid/internal/pkg/log"
	natsclient "tsu-raid/internal/pkg/nats"
	"tsu-raid/internal/pkg/notify"

	"github.com/liangdas/mqant"
	"github.com/liangdas/mqant/module"
	"github.com/liangdas/mqant/registry"
	"github.com/liangdas/mqant/registry/consul"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  TSU Raid Server")
	fmt.Println("  Version: 1.0.0")
	fmt.Println("==============================================")
	fmt.Println()

	cfg, err := config.LoadRaidServerConfig()
	if err != nil {
		fmt.Printf("[Main] Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.ParseLevel(cfg.LogLevel), cfg.Environment)
	logger := log.GetLogger()
	logger.Info("[Main] Configuration loaded", "config", cfg.LogFields())

	// Connect to NATS（mqant RPC 与 raid 事件共用一个连接）
	nc, err := natsclient.Connect("nats://"+cfg.NATSAddress, "raid-server", logger)
	if err != nil {
		logger.Error("[Main] Failed to connect to NATS", err, "address", cfg.NATSAddress)
		os.Exit(1)
	}
	logger.Info("[Main] Connected to NATS successfully", "address", cfg.NATSAddress)
	// 设置全局通知通道
	notify.SetNatsConn(nc)

	// Create Consul registry
	rs := consul.NewRegistry(func(options *registry.Options) {
		options.Addrs = []string{cfg.ConsulAddress}
	})

	// RegisterTTL 和 RegisterInterval 在模块 OnInit 中配置
	mqantConfig := config.GetEnvOrDefault("RAID_MQANT_CONFIG", "./configs/server/raid-server.json")
	logger.Info("[Main] Using mqant config", "path", mqantConfig)
	app := mqant.CreateApp(
		module.Configure(mqantConfig),
		module.Debug(false),
		module.Nats(nc),
		module.Registry(rs),
	)

	if err := app.Run(raid.Module(cfg, nc)); err != nil {
		logger.Error("[Main] raid-server exited", err)
		os.Exit(1)
	}
}
