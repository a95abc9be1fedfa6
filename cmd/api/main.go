package main

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	domainexpr "github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/node"
	dgruntime "github.com/duragraph/duragraph/internal/infrastructure/runtime"
	"github.com/duragraph/duragraph/runtime/bridge"
)

// globalBridge is the Temporal client wrapper every handler below starts,
// signals, and queries running service instances through.
var globalBridge *bridge.Bridge

// startInstanceBody carries exactly what a compiled service needs to run:
// the top-level node and the sub-node registry its equations call into,
// both straight out of a POST /compilations response, plus the timer
// durations the caller wants this instance's debounce/heartbeat to use.
type startInstanceBody struct {
	InstanceID       string             `json:"instance_id"`
	Service          *node.Node         `json:"service"`
	SubNodes         map[int]*node.Node `json:"sub_nodes"`
	DebounceWindow   time.Duration      `json:"debounce_window_ms"`
	HeartbeatTimeout time.Duration      `json:"heartbeat_timeout_ms"`
}

func postStartInstanceHandler(c echo.Context) error {
	serviceID := c.Param("serviceId")
	var body startInstanceBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	if body.InstanceID == "" || body.Service == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "instance_id and service are required"})
	}
	debounce := body.DebounceWindow * time.Millisecond
	heartbeat := body.HeartbeatTimeout * time.Millisecond
	if heartbeat == 0 {
		heartbeat = 30 * time.Second
	}

	def := dgruntime.BuildDefinition(serviceID, body.Service, debounce, heartbeat)
	runID, err := globalBridge.StartInstance(c.Request().Context(), bridge.StartInstanceRequest{
		ServiceID:        serviceID,
		InstanceID:       body.InstanceID,
		Definition:       def,
		Service:          body.Service,
		SubNodes:         body.SubNodes,
		DebounceWindow:   debounce,
		HeartbeatTimeout: heartbeat,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"instance_id": body.InstanceID, "run_id": runID})
}

// postEventHandler delivers one input-flow event to a running instance:
// POST /services/:serviceId/instances/:instanceId/events.
func postEventHandler(c echo.Context) error {
	serviceID := c.Param("serviceId")
	instanceID := c.Param("instanceId")

	var body struct {
		Event string              `json:"event"`
		Value domainexpr.Constant `json:"value"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	if body.Event == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "event is required"})
	}

	if err := globalBridge.SignalInput(c.Request().Context(), serviceID, instanceID, body.Event, body.Value); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusAccepted)
}

func getInstanceHandler(c echo.Context) error {
	serviceID := c.Param("serviceId")
	instanceID := c.Param("instanceId")

	status, err := globalBridge.QueryInstance(c.Request().Context(), serviceID, instanceID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, status)
}

func deleteInstanceHandler(c echo.Context) error {
	serviceID := c.Param("serviceId")
	instanceID := c.Param("instanceId")

	if err := globalBridge.CancelInstance(c.Request().Context(), serviceID, instanceID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusAccepted)
}

func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

func main() {
	temporalHost := os.Getenv("TEMPORAL_HOSTPORT")
	if temporalHost == "" {
		temporalHost = "localhost:7233"
	}
	namespace := os.Getenv("TEMPORAL_NAMESPACE")
	if namespace == "" {
		namespace = "default"
	}
	taskQueue := os.Getenv("TEMPORAL_TASK_QUEUE")
	if taskQueue == "" {
		taskQueue = "duragraph-runtime"
	}

	var err error
	globalBridge, err = bridge.NewBridge(temporalHost, namespace, taskQueue)
	if err != nil {
		echo.New().Logger.Fatalf("failed to connect to Temporal at %s: %v", temporalHost, err)
	}
	defer globalBridge.Close()

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", healthHandler)
	e.POST("/services/:serviceId/instances", postStartInstanceHandler)
	e.POST("/services/:serviceId/instances/:instanceId/events", postEventHandler)
	e.GET("/services/:serviceId/instances/:instanceId", getInstanceHandler)
	e.DELETE("/services/:serviceId/instances/:instanceId", deleteInstanceHandler)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8081"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
