package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/duragraph/duragraph/internal/infrastructure/monitoring"
	"github.com/duragraph/duragraph/internal/pkg/eventbus"
	"github.com/duragraph/duragraph/runtime/translator"
)

func main() {
	hostPort := os.Getenv("TEMPORAL_HOSTPORT")
	if hostPort == "" {
		hostPort = "localhost:7233"
	}
	namespace := os.Getenv("TEMPORAL_NAMESPACE")
	if namespace == "" {
		namespace = "default"
	}
	taskQueue := os.Getenv("TEMPORAL_TASK_QUEUE")
	if taskQueue == "" {
		taskQueue = "duragraph-runtime"
	}

	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer c.Close()

	metrics := monitoring.NewMetrics("duragraph_runtime")
	activities := translator.NewActivities(eventbus.New()).WithMetrics(metrics)

	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflow(translator.ReactiveServiceWorkflow)
	w.RegisterActivityWithOptions(activities.Prepare, activity.RegisterOptions{Name: translator.PrepareActivityName})
	w.RegisterActivityWithOptions(activities.React, activity.RegisterOptions{Name: translator.ReactActivityName})
	w.RegisterActivityWithOptions(activities.Emit, activity.RegisterOptions{Name: translator.EmitActivityName})

	log.Printf("starting go-adapter worker on task queue %q", taskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("unable to start worker: %v", err)
	}
}
