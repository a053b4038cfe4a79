package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aliyusifov99/inventory-management/internal/config"
	"github.com/aliyusifov99/inventory-management/internal/events"
	"github.com/aliyusifov99/inventory-management/internal/observability"
	"github.com/aliyusifov99/inventory-management/internal/service"
	"github.com/aliyusifov99/inventory-management/pkg/database"

	"github.com/sirupsen/logrus"
)

// reconcile checks every product's quantity against its ledger and exits 1
// when any product is out of balance
func main() {
	all := flag.Bool("all", false, "print balanced products too")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := observability.SetupLogger(cfg.Environment, cfg.LogLevel)

	// 2. Setup ledger store
	store, closeStore, err := database.OpenStore(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to open ledger store")
	}
	defer closeStore()

	// 3. Reconcile
	inventory := service.NewInventoryService(store, events.Nop{}, service.WithLogger(log))
	recs, err := inventory.ReconcileAll(context.Background())
	if err != nil {
		log.WithError(err).Fatal("Reconciliation failed")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tINITIAL\tLEDGER\tEXPECTED\tQUANTITY\tSTATUS")
	unbalanced := 0
	for _, r := range recs {
		status := "ok"
		if !r.Balanced {
			status = "MISMATCH"
			unbalanced++
		} else if !*all {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%+d\t%d\t%d\t%s\n",
			r.ProductName, r.InitialQuantity, r.LedgerSum, r.InitialQuantity+r.LedgerSum, r.Quantity, status)
	}
	w.Flush()

	log.WithFields(logrus.Fields{
		"products":   len(recs),
		"unbalanced": unbalanced,
	}).Info("Reconciliation finished")

	if unbalanced > 0 {
		closeStore()
		os.Exit(1)
	}
}
