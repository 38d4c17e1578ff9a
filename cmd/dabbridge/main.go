// Command dabbridge boots a multi-device DAB bridge: it wires a device
// catalogue into package bridge, starts whichever request transports are
// configured (in-process always, MQTT when a broker is given), and exposes
// the admin HTTP status surface and MCP introspection tools alongside it.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"

	"github.com/dabcore/dab-bridge/admin"
	"github.com/dabcore/dab-bridge/advertise"
	"github.com/dabcore/dab-bridge/bridge"
	"github.com/dabcore/dab-bridge/dab"
	"github.com/dabcore/dab-bridge/devices/sampletv"
	"github.com/dabcore/dab-bridge/inproc"
	"github.com/dabcore/dab-bridge/mcpserver"
	"github.com/dabcore/dab-bridge/mqtt"
)

func setupLogger() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// binding is the subset of transport.Binding main drives; redeclared here so
// main doesn't need to import package transport just for a two-method
// interface.
type binding interface {
	Start() error
	Shutdown() error
}

// httpBinding adapts a plain http.Handler to binding so the admin server
// starts and stops alongside the request transports.
type httpBinding struct {
	addr   string
	server *http.Server
}

func newHTTPBinding(addr string, handler http.Handler) *httpBinding {
	return &httpBinding{addr: addr, server: &http.Server{Addr: addr, Handler: handler}}
}

func (h *httpBinding) Start() error {
	err := h.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (h *httpBinding) Shutdown() error {
	return h.server.Shutdown(context.Background())
}

func main() {
	setupLogger()

	var (
		brokerURL    = flag.String("broker", "", "MQTT broker URL (e.g. tcp://localhost:1883); empty runs the in-process transport only")
		clientID     = flag.String("client-id", "dab-bridge", "MQTT client id and mDNS instance name")
		adminAddr    = flag.String("admin-addr", ":8080", "admin HTTP listen address")
		deviceID     = flag.String("device-id", "tv1", "deviceId for the single on-device adapter started at boot")
		advertiseOn  = flag.Bool("advertise", true, "advertise this bridge over mDNS")
	)
	flag.Parse()

	if *deviceID == "" {
		*deviceID = "device-" + uuid.NewString()[:8]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogue := []bridge.AdapterType{
		{Name: "sampletv", IsCompatible: sampletv.IsCompatible, New: sampletv.New},
	}
	br := bridge.New(catalogue, slog.Default())

	var mqttTransport *mqtt.Transport
	if *brokerURL != "" {
		mqttTransport = mqtt.New(*brokerURL, *clientID, br, slog.Default())
		br.SetPublishCallback(mqttTransport.Publish)
	}

	if _, err := br.AddDevice(*deviceID, ""); err != nil {
		slog.Error("failed to add on-device adapter", "error", err)
		os.Exit(1)
	}

	lookupAdapter := func(id string) (*dab.BaseAdapter, bool) {
		return br.Adapter(id)
	}

	adminServer := admin.New(br, func(id string) (admin.AdapterView, bool) {
		return lookupAdapter(id)
	})
	mcpSrv := mcpserver.New(br, func(id string) (mcpserver.AdapterView, bool) {
		return lookupAdapter(id)
	})

	var adv *advertise.Advertiser
	if *advertiseOn {
		port := adminPort(*adminAddr)
		var err error
		adv, err = advertise.New(*clientID, port, len(br.Devices()))
		if err != nil {
			slog.Error("failed to start mdns advertiser", "error", err)
		}
	}

	bindings := []binding{inproc.New(br), newHTTPBinding(*adminAddr, adminServer)}
	if mqttTransport != nil {
		bindings = append(bindings, mqttTransport)
	}

	for _, b := range bindings {
		b := b
		go func() {
			if err := b.Start(); err != nil {
				slog.Error("transport failed to start", "error", err)
			}
		}()
	}
	go func() {
		if err := mcpSrv.Run(); err != nil {
			slog.Error("mcp server exited", "error", err)
		}
	}()

	slog.Info("dab-bridge started", "deviceId", *deviceID, "mqttBroker", *brokerURL, "adminAddr", *adminAddr)

	<-ctx.Done()
	slog.Info("shutting down")

	for _, b := range bindings {
		if err := b.Shutdown(); err != nil {
			slog.Error("error shutting down transport", "error", err)
		}
	}
	if adv != nil {
		if err := adv.Shutdown(); err != nil {
			slog.Error("error shutting down mdns advertiser", "error", err)
		}
	}
	br.Shutdown()
}

// adminPort extracts the numeric port from addr (":8080" or "0.0.0.0:8080"),
// defaulting to 8080 if it can't be parsed. Only the port advertised over
// mDNS depends on this, so a bad flag value degrades gracefully rather than
// failing startup.
func adminPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 8080
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 8080
	}
	return port
}
