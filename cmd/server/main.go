package main

import (
	"fmt"
	"net/http"

	"github.com/richardliu001/transaction-service/internal/config"
	"github.com/richardliu001/transaction-service/internal/logger"
	"github.com/richardliu001/transaction-service/internal/service"
	"github.com/richardliu001/transaction-service/internal/store"
	httptransport "github.com/richardliu001/transaction-service/internal/transport/http"
)

func main() {
	// 1. load config
	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	// 2. init logger
	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	// 3. in-memory stores, process lifetime, initialized empty
	records, err := store.NewRecordStore(cfg.Cache.MaxRecords)
	if err != nil {
		log.Fatalf("record store: %v", err)
	}
	userIdx, err := store.NewIndexStore(cfg.Cache.MaxIndexKeys)
	if err != nil {
		log.Fatalf("user index: %v", err)
	}
	merchantIdx, err := store.NewIndexStore(cfg.Cache.MaxIndexKeys)
	if err != nil {
		log.Fatalf("merchant index: %v", err)
	}
	locks := store.NewKeyLock(cfg.Cache.MaxLocks, cfg.Cache.LockTTL())

	// 4. service
	svc := service.NewTransactionService(records, userIdx, merchantIdx, locks, log)

	// 5. gin router
	router := httptransport.NewRouter(svc, cfg.RateLimit, log)

	// 6. serve
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Infof("transaction-server listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
