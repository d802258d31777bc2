// cmd/waterforced/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/config"
	expmodbus "github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/export/modbus"
	expmqtt "github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/export/mqtt"
	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/hidraw"
	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/monitor"
	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/protocol"
	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/waterforce"
)

func main() {
	log := logrus.New()

	if len(os.Args) < 2 {
		log.Fatal("usage: waterforced <config.yaml>")
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	level, _ := logrus.ParseLevel(cfg.Log.Level)
	log.SetLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --------------------
	// Open + identify the device
	// --------------------

	hid, err := hidraw.Open(cfg.Device.Path)
	if err != nil {
		log.Fatalf("device open failed: %v", err)
	}
	defer hid.Close()

	info := hid.Info()
	if info.VendorID != protocol.VendorGigabyte {
		log.Fatalf("%s: vendor 0x%04X is not Gigabyte", cfg.Device.Path, info.VendorID)
	}
	variant, ok := protocol.VariantFor(info.ProductID)
	if !ok {
		log.Fatalf("%s: product 0x%04X is not a known Waterforce cooler", cfg.Device.Path, info.ProductID)
	}

	dev := waterforce.New(hid, variant, log)

	// Inbound reports flow from the node into the classifier until the
	// device goes away or we shut down.
	go func() {
		err := hid.ReadLoop(ctx, dev.HandleReport)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("device read loop ended")
		}
		cancel()
	}()

	// --------------------
	// Capability resolution (fatal on failure)
	// --------------------

	if err := dev.Init(ctx); err != nil {
		log.Fatalf("device initialization failed: %v", err)
	}

	// --------------------
	// Monitor + exporters
	// --------------------

	var mon *monitor.Monitor
	if cfg.Monitor.Enabled {
		mon = monitor.New(log)
		mon.SetDeviceInfo(variant.Name, dev.FirmwareVersion(), dev.MaxRotorRPM())
		mon.Serve(cfg.Monitor.Listen)
	}

	var publisher *expmqtt.Publisher
	if mc := cfg.Exports.MQTT; mc != nil {
		publisher, err = expmqtt.NewPublisher(expmqtt.Config{
			Broker:   mc.Broker,
			Topic:    mc.Topic,
			ClientID: mc.ClientID,
			Username: mc.Username,
			Password: mc.Password,
			QoS:      mc.QoS,
		}, log)
		if err != nil {
			log.Fatalf("mqtt export setup failed: %v", err)
		}
		defer publisher.Close()
	}

	var exporter *expmodbus.Exporter
	if mc := cfg.Exports.Modbus; mc != nil {
		cli, err := expmodbus.NewEndpointClient(expmodbus.Config{
			Endpoint: mc.Endpoint,
			Timeout:  time.Duration(mc.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			log.Fatalf("modbus export setup failed: %v", err)
		}
		defer cli.Close()
		exporter = expmodbus.NewExporter(cli, mc.UnitID, mc.BaseAddress)
	}

	// --------------------
	// Poll pipeline
	// --------------------

	out := make(chan protocol.Snapshot)

	// Producer: clock-driven sensor reads.
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Poll.IntervalMs) * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap, err := dev.ReadSensors(ctx)
				if err != nil {
					log.WithError(err).Warn("sensor read failed")
					if mon != nil {
						mon.ObserveReadError()
					}
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// Consumer: deliver each snapshot to every configured sink.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-out:
				if mon != nil {
					mon.ObserveSnapshot(snap)
				}
				if publisher != nil {
					t := expmqtt.FromSnapshot(variant.Name, snap, dev.FirmwareVersion())
					if err := publisher.Publish(t); err != nil {
						log.WithError(err).Warn("mqtt publish failed")
						if mon != nil {
							mon.ObserveExportError()
						}
					}
				}
				if exporter != nil {
					if err := exporter.Export(snap, dev.FirmwareVersion(), dev.MaxRotorRPM()); err != nil {
						log.WithError(err).Warn("modbus export failed")
						if mon != nil {
							mon.ObserveExportError()
						}
					}
				}
			}
		}
	}()

	log.WithFields(logrus.Fields{
		"device":  variant.Name,
		"path":    cfg.Device.Path,
		"product": info.ProductID,
	}).Info("waterforced running")

	<-ctx.Done()
	log.Info("shutting down")
}
