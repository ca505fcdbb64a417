package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	grpc_adapter "github.com/JoeShih716/go-mem-account/internal/app/core/adapter/in/grpc"
	grpcpool "github.com/JoeShih716/go-mem-account/pkg/grpc"
)

func main() {
	target := flag.String("target", "localhost:50051", "account service address")
	total := flag.Int("n", 100000, "number of deposit/withdraw pairs")
	concurrency := flag.Int("c", 100, "concurrent requests")
	amount := flag.Int64("amount", 100, "amount per operation")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	pool := grpcpool.NewPool()
	defer pool.Close()
	conn, err := pool.GetConnection(*target)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	client := grpc_adapter.NewAccountClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	before, err := client.GetBalance(ctx)
	if err != nil {
		log.Fatalf("GetBalance failed: %v", err)
	}

	var (
		wg       sync.WaitGroup
		failed   atomic.Int64
		rejected atomic.Int64
	)
	sem := make(chan struct{}, *concurrency)
	startTime := time.Now()

	for i := 0; i < *total; i++ {
		sem <- struct{}{}
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := client.Deposit(ctx, uuid.New(), *amount); err != nil {
				failed.Add(1)
				if idx%10000 == 0 {
					log.Warnf("Deposit %d failed: %v", idx, err)
				}
				return
			}
			ok, _, err := client.Withdraw(ctx, uuid.New(), *amount)
			switch {
			case err != nil:
				failed.Add(1)
			case !ok:
				rejected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	elapsed := time.Since(startTime)
	after, err := client.GetBalance(ctx)
	if err != nil {
		log.Fatalf("GetBalance failed: %v", err)
	}

	requests := *total * 2
	fmt.Printf("Completed %d requests in %v\n", requests, elapsed)
	fmt.Printf("TPS: %.2f\n", float64(requests)/elapsed.Seconds())
	fmt.Printf("Failed: %d, withdraw rejected: %d\n", failed.Load(), rejected.Load())
	fmt.Printf("Balance: %d -> %d\n", before, after)

	printLoan(ctx, client, log)
}

// printLoan 印出一筆貸款的試算與攤還表
func printLoan(ctx context.Context, client *grpc_adapter.AccountClient, log *logrus.Logger) {
	const (
		principal = 10000.0
		interest  = 0.01
		months    = 12
	)
	q, err := client.Quote(ctx, principal, interest, months)
	if err != nil {
		log.Fatalf("Quote failed: %v", err)
	}
	fmt.Printf("\nLoan %.2f at %.2f%% for %d months\n", principal, interest*100, months)
	fmt.Printf("Payment: %.2f  Total: %.2f  Interest: %.2f\n", q.Payment, q.TotalPayment, q.TotalInterest)

	rows, err := client.Schedule(ctx, principal, interest, months)
	if err != nil {
		log.Fatalf("Schedule failed: %v", err)
	}
	fmt.Printf("%5s %10s %10s %10s %12s\n", "month", "payment", "interest", "principal", "pending")
	for _, row := range rows {
		fmt.Printf("%5d %10.2f %10.2f %10.2f %12.2f\n", row.Month, row.Payment, row.Interest, row.Principal, row.Pending)
	}
}
