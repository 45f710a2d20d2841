package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"satdesk-manager/internal/alerts"
	"satdesk-manager/internal/config"
	"satdesk-manager/internal/infrastructure/database/postgres"
	"satdesk-manager/internal/infrastructure/memory"
	"satdesk-manager/internal/logger"
	"satdesk-manager/internal/routes"
	"satdesk-manager/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("store_driver", cfg.Store.Driver),
	)

	stores, cleanup, err := buildStores(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer cleanup()

	engine := alerts.NewEngine(stores.Devices, stores.Desks, stores.Orders, stores.Dismissals)

	var publisher alerts.Publisher
	var mqttClient *mqtt.Client
	if cfg.MQTT.Broker != "" {
		mqttClient = mqtt.NewClient(&mqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			CleanSession:         true,
			KeepAlive:            30,
			ConnectTimeout:       10,
			AutoReconnect:        true,
			MaxReconnectInterval: 5 * time.Minute,
		})
		if err := mqttClient.Connect(); err != nil {
			logger.Error("Failed to connect to MQTT broker, alert publishing disabled", zap.Error(err))
			mqttClient = nil
		} else {
			publisher = alerts.NewMQTTPublisher(mqttClient, cfg.MQTT.AlertTopic)
			defer mqttClient.Disconnect()
		}
	}

	scheduler := alerts.NewScheduler(engine, publisher, cfg.Alerts.ScanInterval)
	scheduler.Start()
	defer scheduler.Stop()

	router := routes.SetupRoutes(cfg, stores, engine)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}

// buildStores selects the registry backend from STORE_DRIVER. The returned
// cleanup closes whatever the backend holds open.
func buildStores(cfg *config.Config) (*routes.Stores, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.DBName == "" {
			return nil, nil, errors.New("postgres store requires DB_HOST and DB_NAME")
		}

		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}

		stores := &routes.Stores{
			Devices:    postgres.NewDeviceRepository(db),
			Orders:     postgres.NewOrderRepository(db),
			Desks:      postgres.NewSatDeskRepository(db),
			Dismissals: postgres.NewDismissalStore(db),
			Health:     db.Health,
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database connection", zap.Error(err))
			}
		}
		return stores, cleanup, nil

	case "memory", "":
		stores := &routes.Stores{
			Devices:    memory.NewDeviceRepository(),
			Orders:     memory.NewOrderRepository(),
			Desks:      memory.NewSatDeskRepository(),
			Dismissals: memory.NewDismissalStore(),
		}
		return stores, func() {}, nil

	default:
		return nil, nil, errors.New("unknown store driver: " + cfg.Store.Driver)
	}
}
