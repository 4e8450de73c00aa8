// Appliance Link - device connectivity daemon
//
// Appliance Link maintains broker sessions to JSON-over-MQTT home
// appliances (robot vacuums, air treatment machines), validates and
// normalizes their status traffic, tracks reachability, and exposes a
// command surface for driving them. One session per configured device;
// sessions reconnect with backoff and survive restarts via the status
// cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nfarrow/appliancelink/internal/cache"
	"github.com/nfarrow/appliancelink/internal/cloud"
	"github.com/nfarrow/appliancelink/internal/infrastructure/config"
	"github.com/nfarrow/appliancelink/internal/infrastructure/database"
	"github.com/nfarrow/appliancelink/internal/infrastructure/influxdb"
	"github.com/nfarrow/appliancelink/internal/infrastructure/logging"
	"github.com/nfarrow/appliancelink/internal/message"
	"github.com/nfarrow/appliancelink/internal/session"
	"github.com/nfarrow/appliancelink/internal/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Appliance Link", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "devices", len(cfg.Devices))

	log = logging.New(cfg.Logging, version)

	// Open the cache database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Cache.Path,
		WALMode:     cfg.Cache.WALMode,
		BusyTimeout: cfg.Cache.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening cache database: %w", err)
	}
	defer func() {
		log.Info("closing cache database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing cache database", "error", closeErr)
		}
	}()
	log.Info("cache database opened", "path", cfg.Cache.Path)

	store := cache.NewStore(db)
	snapshots := cache.NewSnapshotStore(store)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// The cloud API client is shared by all cloud-mode sessions and
	// only built when one exists.
	var cloudClient *cloud.Client
	for _, dev := range cfg.Devices {
		if dev.Mode == config.ModeCloud {
			cloudClient = cloud.NewClient(cloud.Config{
				BaseURL:  cfg.Cloud.APIURL,
				Email:    cfg.Cloud.Email,
				Password: cfg.Cloud.Password,
				Country:  cfg.Cloud.Country,
				Store:    store,
				Logger:   log,
			})
			break
		}
	}

	// Build one session per configured device.
	sessions := make([]*session.Session, 0, len(cfg.Devices))
	for _, dev := range cfg.Devices {
		tr, buildErr := buildTransport(cfg, dev, cloudClient, log)
		if buildErr != nil {
			return fmt.Errorf("device %s: %w", dev.Serial, buildErr)
		}

		sess, sessErr := session.New(ctx, session.Options{
			Serial:    dev.Serial,
			RootTopic: dev.RootTopic,
			Family:    message.Family(dev.Family),
			Transport: tr,
			Snapshots: snapshots,
			Logger:    log.With("serial", dev.Serial),
		})
		if sessErr != nil {
			return fmt.Errorf("device %s: %w", dev.Serial, sessErr)
		}
		sessions = append(sessions, sess)
	}

	// Supervise the sessions. Each Run blocks until shutdown; the
	// telemetry pumps drain status events alongside.
	group, groupCtx := errgroup.WithContext(ctx)
	for _, sess := range sessions {
		sess := sess
		group.Go(func() error {
			return sess.Run(groupCtx)
		})
		group.Go(func() error {
			return pumpEvents(groupCtx, sess, influxClient, log)
		})
	}

	// Report readiness in the background; sessions that never reach
	// their appliance keep retrying regardless.
	for _, sess := range sessions {
		sess := sess
		go func() {
			if waitErr := sess.WaitUntilInitialised(groupCtx, cfg.GetCacheFallbackDelay()); waitErr == nil {
				log.Info("device ready", "serial", sess.Serial(), "state", string(sess.State()))
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	err = group.Wait()

	// Graceful stop persists initialised snapshots to the cache.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	for _, sess := range sessions {
		sess.Stop(stopCtx)
	}

	log.Info("Appliance Link stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildTransport constructs the transport a device's mode calls for.
func buildTransport(cfg *config.Config, dev config.DeviceConfig, cloudClient *cloud.Client, log *logging.Logger) (transport.Transport, error) {
	switch dev.Mode {
	case config.ModeLocal:
		return transport.NewLocal(transport.LocalOptions{
			Host:       dev.Local.Host,
			Port:       dev.Local.Port,
			TLS:        dev.Local.TLS,
			Serial:     dev.Serial,
			Credential: dev.Credential,
		}, log), nil

	case config.ModeCloud:
		if cloudClient == nil {
			return nil, fmt.Errorf("cloud mode requires cloud configuration")
		}
		return transport.NewCloud(transport.CloudOptions{
			Host:        cfg.Cloud.BrokerHost,
			Serial:      dev.Serial,
			Credentials: cloudClient.BrokerCredentialSource(dev.Serial),
		}, log), nil

	case config.ModeReplay:
		return transport.NewReplay(dev.Replay.LogPath, log)

	default:
		return nil, fmt.Errorf("unknown connection mode %q", dev.Mode)
	}
}

// pumpEvents forwards session status snapshots to the telemetry sink
// and logs session errors. Runs until the context is cancelled.
func pumpEvents(ctx context.Context, sess *session.Session, influxClient *influxdb.Client, log *logging.Logger) error {
	events := sess.Events(session.EventStatus, session.EventError)
	defer sess.Unsubscribe(events)

	for {
		select {
		case raw, ok := <-events:
			if !ok {
				return nil
			}
			ev, isEvent := raw.(session.Event)
			if !isEvent {
				continue
			}
			switch ev.Kind {
			case session.EventStatus:
				if influxClient != nil {
					influxClient.WriteSnapshot(ev.Serial, ev.Status)
				}
			case session.EventError:
				log.Debug("session error event", "serial", ev.Serial, "error", ev.Err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses the APPLINK_CONFIG environment variable if set.
func getConfigPath() string {
	if path := os.Getenv("APPLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
