// demo walks the facade end to end against a running bridge daemon and
// prints each result, mirroring what the application's health screen shows.
package main

import (
	"context"
	"log"
	"time"

	"example.com/healthbridge/internal/config"
	"example.com/healthbridge/internal/facade"
)

func main() {
	cfg := config.Load()

	client := facade.New(cfg.BridgeBaseURL, cfg.BridgeToken)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !client.Initialize(ctx) {
		log.Printf("health store unavailable on this device")
		return
	}
	log.Printf("health store available")

	if client.RequestAllPermissions(ctx) {
		log.Printf("all read permissions already granted")
	} else {
		log.Printf("permission prompt started; polling for the decision")
		deadline := time.Now().Add(15 * time.Second)
		for !client.HasAllPermissions(ctx) {
			if time.Now().After(deadline) {
				log.Printf("permissions still missing; opening settings instead")
				client.OpenSettings(ctx)
				return
			}
			time.Sleep(time.Second)
		}
	}

	log.Printf("steps today:        %d", client.GetTodaySteps(ctx))
	log.Printf("last night's sleep: %dh", client.GetLastNightSleep(ctx))
	log.Printf("latest heart rate:  %d bpm", client.GetLatestHeartRate(ctx))
}
