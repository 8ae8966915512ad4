// Inspector fetches one account's metrics straight from the provider and
// prints the objective evaluation, bypassing the cache. Useful when a
// dashboard number looks wrong and you want the raw upstream view.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fundedlabs/propgate/internal/config"
	"github.com/fundedlabs/propgate/internal/metaapi"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/pkg/logger"
	"github.com/fundedlabs/propgate/internal/repository"
	"github.com/fundedlabs/propgate/internal/service"
)

func main() {
	accountID := flag.String("account", "", "challenge account id")
	raw := flag.Bool("raw", false, "dump the full metrics document as JSON")
	flag.Parse()

	if *accountID == "" {
		fmt.Fprintln(os.Stderr, "usage: inspector -account <id> [-raw]")
		os.Exit(2)
	}

	logger.Init("warn")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := repository.NewDB(cfg)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	accountRepo := repository.NewPostgresAccountRepo(db)
	metricsRepo := repository.NewPostgresMetricsRepo(db)
	metaClient := metaapi.NewClient(cfg.MetaAPI)

	svc := service.NewMetricsService(nil, metricsRepo, accountRepo, metaClient, cfg.FreshnessWindow())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	acct, err := accountRepo.GetByID(ctx, *accountID)
	if err != nil {
		log.Fatalf("load account: %v", err)
	}

	doc, err := svc.Refresh(ctx, acct)
	if err != nil {
		log.Fatalf("refresh metrics: %v", err)
	}

	if *raw {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			log.Fatal(err)
		}
		return
	}

	fmt.Printf("account   %s (%s, step %d, %s)\n", acct.AccountID, acct.AccountType, acct.Step, acct.Status)
	if doc.Balance != nil {
		fmt.Printf("balance   %.2f\n", *doc.Balance)
	} else {
		fmt.Println("balance   <missing upstream>")
	}
	fmt.Printf("max dd    %.2f%%\n", doc.MaxDrawdown)
	fmt.Printf("daily dd  %.2f%%\n", doc.MaxDailyDrawdown)
	fmt.Printf("trades    %d over %d trading days\n", doc.NumberOfTrades, doc.TradingDays)
	fmt.Printf("events    %d risk events\n", len(doc.RiskEvents))

	if doc.Objectives == nil {
		fmt.Println("\nobjectives: not evaluated (balance missing)")
		return
	}
	fmt.Println("\nobjectives:")
	printObjective("min trading days", doc.Objectives.MinTradingDays)
	printObjective("max drawdown", doc.Objectives.MaxDrawdown)
	if doc.Objectives.MaxDailyDrawdown != nil {
		printObjective("max daily drawdown", *doc.Objectives.MaxDailyDrawdown)
	}
	printObjective("profit target", doc.Objectives.ProfitTarget)
	fmt.Printf("  profit: %.2f%%  overall: %v\n", doc.Objectives.ProfitPercent, doc.Objectives.Passed())
}

func printObjective(name string, o model.Objective) {
	mark := "FAIL"
	if o.Passed {
		mark = "ok"
	}
	fmt.Printf("  %-20s target %.2f current %.2f  %s\n", name, o.Target, o.Current, mark)
}
