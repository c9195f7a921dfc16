package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"auditraft/internal/pubsub"
	"auditraft/internal/raft/cluster"
	"auditraft/internal/raft/metrics"
	"auditraft/internal/raft/statemachine"
	"auditraft/internal/raft/trail"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML member config; when empty a 3-member local demo cluster is booted")
	clusterSize := flag.Int("size", 3, "demo cluster size (ignored when -config is set)")
	basePort := flag.Int("base-port", 50051, "first port of the demo cluster (ignored when -config is set)")
	flag.Parse()

	if *configPath != "" {
		runMember(*configPath)
		return
	}
	runDemoCluster(*clusterSize, *basePort)
}

// runMember boots a single durable member from its config file and blocks until shutdown.
func runMember(configPath string) {
	cfg, err := cluster.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pubSub := pubsub.NewPubSub()
	var auditTrail trail.AuditTrail
	if cfg.StoragePath != "" {
		bt, err := trail.NewBboltAuditTrail(cfg.StoragePath, pubSub)
		if err != nil {
			log.Fatalf("Failed to open audit trail at %s: %v", cfg.StoragePath, err)
		}
		auditTrail = bt
	} else {
		auditTrail = trail.NewMemoryAuditTrail(pubSub)
	}
	defer auditTrail.Close()

	m := metrics.NewMetrics()
	c := cluster.NewRaftCluster(cfg, auditTrail, pubSub, m)

	machine := statemachine.NewKVStateMachine(cfg.ID)
	applier := statemachine.NewApplier(auditTrail, machine, pubSub)
	defer applier.Close()

	done := make(chan bool, 1)
	go listenForShutdown([]*cluster.RaftCluster{c}, done)

	// Blocks until the gRPC server stops.
	if err := c.Start(); err != nil {
		log.Printf("Member %v stopped: %v", c.ID, err)
	}
	<-done
}

// runDemoCluster boots an in-process cluster of in-memory members, for local experimentation.
func runDemoCluster(clusterSize, basePort int) {
	members := reserveMembers(clusterSize, basePort)
	clusters := createCluster(members)

	done := make(chan bool, 1)

	go listenForShutdown(clusters, done)

	bootCluster(clusters)

	// Wait for the graceful shutdown to complete
	<-done
}

func reserveMembers(clusterSize, basePort int) []cluster.MemberConfig {
	var members []cluster.MemberConfig
	for i := 0; i < clusterSize; i++ {
		members = append(members, cluster.MemberConfig{
			ID:      fmt.Sprintf("member-%d", i),
			Address: fmt.Sprintf("localhost:%d", basePort+i),
		})
	}
	return members
}

func createCluster(members []cluster.MemberConfig) []*cluster.RaftCluster {
	clusters := make([]*cluster.RaftCluster, 0, len(members))

	for _, m := range members {
		cfg := cluster.DefaultConfig()
		cfg.ID = m.ID
		cfg.ListenAddress = m.Address
		cfg.Members = members

		// IMPORTANT: each member gets its OWN PubSub instance to prevent cross-member event pollution
		pubSub := pubsub.NewPubSub()
		auditTrail := trail.NewMemoryAuditTrail(pubSub)

		c := cluster.NewRaftCluster(cfg, auditTrail, pubSub, metrics.NewMetrics())
		statemachine.NewApplier(auditTrail, statemachine.NewKVStateMachine(m.ID), pubSub)
		clusters = append(clusters, c)
	}

	return clusters
}

func bootCluster(clusters []*cluster.RaftCluster) {
	for _, c := range clusters {
		go func(c *cluster.RaftCluster) {
			log.Printf("Starting member %v on %v", c.ID, c.Address)
			if err := c.Start(); err != nil {
				log.Printf("Member %v failed to boot due to err: %v", c.ID, err)
			}
		}(c)
	}

	log.Printf("Started %d members - cluster is forming", len(clusters))
}

func listenForShutdown(clusters []*cluster.RaftCluster, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Block the thread until an interrupt signal is received.
	<-signalCtx.Done()

	log.Println("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Disable signal handler so second Ctrl+C will force immediate exit of the process via the OS

	// All members have 5 seconds to finish the requests they are currently handling.
	forceShutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gracefulShutdownDone := gracefullyShutdownCluster(clusters)

	// Race the shutdown completion against the timeout
	select {
	case <-gracefulShutdownDone:
		log.Println("All members shutdown gracefully")
	case <-forceShutdownCtx.Done():
		log.Println("Graceful shutdown timeout reached, forcing shutdown...")

		for _, c := range clusters {
			go c.ForceShutdown()
		}

		// Give force shutdown a brief moment to complete
		time.Sleep(500 * time.Millisecond)
		log.Println("Force shutdown complete")
	}

	log.Println("Cluster exiting")
	done <- true
}

func gracefullyShutdownCluster(clusters []*cluster.RaftCluster) chan struct{} {
	var wg sync.WaitGroup

	for _, c := range clusters {
		wg.Add(1)
		go func(c *cluster.RaftCluster) {
			defer wg.Done()
			c.GracefulShutdown()
		}(c)
	}

	// Convert the blocking WaitGroup.Wait() to a channel signal
	gracefulShutdownDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(gracefulShutdownDone)
	}()

	return gracefulShutdownDone
}
