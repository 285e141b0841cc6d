package main

import (
	"context"
	"fmt"
	"os"

	"dreamstate-ticketing/internal/config"
	"dreamstate-ticketing/internal/database"
	"dreamstate-ticketing/internal/logger"
	order_db "dreamstate-ticketing/internal/order/db"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	cfg := config.Load()
	log := logger.NewLogger("ticket-types")
	defer log.Close()

	ctx := context.Background()
	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer bunDB.Close()

	if err := run(ctx, os.Args[1:], &order_db.DB{Bun: bunDB}, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
