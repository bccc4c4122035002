// v1
// cmd/field-gateway/main.go

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"plantops/internal/logging"
)

func newMQTTClient(cfg GatewayConfig, logger *slog.Logger) mqtt.Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	return mqtt.NewClient(opts)
}

func main() {
	logger := logging.New("field-gateway")
	logger.Info("field gateway starting")

	cfg, err := buildConfig(logger)
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewBridge(logger, cfg)
	defer bridge.Close()

	client := newMQTTClient(cfg, logger)
	token := client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		logger.Error("mqtt connect timed out", "broker", cfg.MQTTBroker)
		os.Exit(1)
	}
	if err := token.Error(); err != nil {
		logger.Error("mqtt connect failed", "err", err)
		os.Exit(1)
	}

	sub := client.Subscribe(cfg.MQTTTopic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		bridge.Forward(ctx, msg.Topic(), msg.Payload())
	})
	if !sub.WaitTimeout(10*time.Second) || sub.Error() != nil {
		logger.Error("mqtt subscribe failed", "topic", cfg.MQTTTopic, "err", sub.Error())
		os.Exit(1)
	}
	logger.Info("subscribed", "topic", cfg.MQTTTopic)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		forwarded, dropped := bridge.Stats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"mqttConnected": client.IsConnected(),
			"forwarded":     forwarded,
			"dropped":       dropped,
		})
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		logger.Info("http listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received")

	_ = srv.Shutdown(context.Background())
	client.Disconnect(250)
	cancel()
	time.Sleep(300 * time.Millisecond)
	logger.Info("shutdown complete")
}
