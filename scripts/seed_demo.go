// 手动写入演示数据脚本
//
// 主程序通过 -seed 参数也能完成同样的事情。
// 此脚本用于不启动服务的场景，例如演示环境初始化。
//
// 用法: go run scripts/seed_demo.go

package main

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"learnmate_backend/internal/config"
	"learnmate_backend/pkg/database"
	"learnmate_backend/pkg/logger"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("写入演示账号和进度数据...")
	if err := database.SeedDemoData(db); err != nil {
		log.Fatalf("写入失败: %v", err)
	}
	log.Println("完成！")
}
