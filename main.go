package main

import (
	"visitlog/config"
	"visitlog/models"
	"visitlog/routes"
	"visitlog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	// Connect and ensure the visits table exists; fatal when the store is
	// unreachable at startup.
	db := config.InitDatabase(&models.Visit{})

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
