package main

import (
	"mindnight-be/internal/api/http"
	"mindnight-be/internal/config"
	"mindnight-be/internal/logger"
	"mindnight-be/internal/service"
	"mindnight-be/internal/state"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)

	if cfg.ConfigFile == "" {
		zap.S().Infof("未找到配置文件，使用默认配置")
	} else {
		zap.S().Infof("使用配置文件 %s", cfg.ConfigFile)
	}

	gameSvc := service.NewGameService(service.Options{
		Preset: cfg.RulesPreset,
		Timeouts: service.Timeouts{
			Propose: cfg.ProposeTimeout,
			Vote:    cfg.VoteTimeout,
			Action:  cfg.ActionTimeout,
		},
		GameTTL:         cfg.GameTTL,
		CleanupInterval: cfg.CleanupInterval,
	})
	defer gameSvc.Close()

	// 组装应用状态
	appState := state.NewAppState(cfg, gameSvc)

	// 启动服务器
	http.RunServer(appState)
}
