// syncsim simulates a wearable sync agent: it publishes randomized step,
// heart-rate, and sleep events to the sync topic so a local bridge stack has
// data to serve.
package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/healthbridge/internal/config"
	"example.com/healthbridge/internal/healthstore"
	"example.com/healthbridge/internal/ingest"
)

func main() {
	cfg := config.Load()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.SyncTopic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	log.Printf("syncsim publishing to %s every %s as device %s", cfg.SyncTopic, cfg.SyncInterval, cfg.SyncDeviceID)

	// Grant the read scopes up front so reads against the simulated store
	// work without a manual prompt round trip.
	for _, scope := range healthstore.RequiredScopes() {
		if err := publish(ctx, writer, cfg.SyncDeviceID, ingest.EventPermissionChanged, ingest.PermissionChanged{
			Scope:   string(scope),
			Granted: true,
		}); err != nil {
			log.Printf("grant publish failed: %v", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("syncsim stopping")
			return
		case <-ticker.C:
			if err := publishSample(ctx, writer, cfg.SyncDeviceID, rng); err != nil {
				log.Printf("publish failed: %v", err)
			}
		}
	}
}

func publishSample(ctx context.Context, writer *kafka.Writer, deviceID string, rng *rand.Rand) error {
	now := time.Now().UTC()

	switch rng.Intn(3) {
	case 0:
		return publish(ctx, writer, deviceID, ingest.EventStepsRecorded, ingest.StepsRecorded{
			Count:     int64(rng.Intn(400)),
			StartTime: now.Add(-10 * time.Minute),
			EndTime:   now,
		})
	case 1:
		samples := make([]ingest.SamplePayload, 0, 6)
		for i := 0; i < 6; i++ {
			samples = append(samples, ingest.SamplePayload{
				Time:           now.Add(time.Duration(-i) * time.Minute),
				BeatsPerMinute: 55 + float64(rng.Intn(70)),
			})
		}
		return publish(ctx, writer, deviceID, ingest.EventHeartRateRecorded, ingest.HeartRateRecorded{
			StartTime: now.Add(-6 * time.Minute),
			EndTime:   now,
			Samples:   samples,
		})
	default:
		bedtime := time.Date(now.Year(), now.Month(), now.Day(), 23, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		return publish(ctx, writer, deviceID, ingest.EventSleepRecorded, ingest.SleepRecorded{
			StartTime: bedtime,
			EndTime:   bedtime.Add(time.Duration(6+rng.Intn(3)) * time.Hour),
			Title:     "Night sleep",
			Notes:     "synced by syncsim",
		})
	}
}

func publish(ctx context.Context, writer *kafka.Writer, deviceID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(deviceID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "device_id", Value: []byte(deviceID)},
		},
	})
}
