// Command example wires a ConnectionPool to a real AMQP-backed
// ConnectionFactory and drives a few operations with failover.
package main

import (
	"context"
	"log"
	"time"

	dynoamqp "github.com/timiblossom/dyno/transport/amqp"

	"github.com/timiblossom/dyno/models"
	"github.com/timiblossom/dyno/monitor"
	"github.com/timiblossom/dyno/pool"
)

func main() {
	cfg := models.DefaultPoolConfig()

	countingMonitor := monitor.NewCountingMonitor()
	factory := dynoamqp.NewFactory(dynoamqp.DefaultConfig())

	cp := pool.NewConnectionPool(factory, cfg, countingMonitor, pool.RetryNTimesFactory{N: cfg.RetryCount})

	hosts := []models.Host{
		models.NewHost("dyno-a.internal", 5672),
		models.NewHost("dyno-b.internal", 5672),
		models.NewHost("dyno-c.internal", 5672),
	}
	for _, h := range hosts {
		if !cp.AddHost(h) {
			log.Printf("failed to bring up host %s", h)
		}
	}
	defer cp.Shutdown()

	op := pool.OperationFunc{
		OpName: "ping",
		OpKey:  "ping",
		Fn: func(ctx context.Context, client interface{}) (interface{}, error) {
			// client is the *amqp.Channel handed out by the connection;
			// a real caller would issue a protocol call against it here.
			return "pong", nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := cp.ExecuteWithFailover(ctx, op)
	if err != nil {
		log.Fatalf("operation failed: %v", err)
	}
	log.Printf("served by %s in %s: %v", result.Host, result.Latency, result.Value)
}
