// Command notifywatch prints every notification event published to user
// channels. It is a development aid for checking what the API emits.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/cache"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/config"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/notifications"
)

func main() {
	filter := flag.String("type", "", "Only print events whose payload contains this event type")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()
	if rdb == nil {
		log.Fatalf("Redis is not reachable at %s", cfg.RedisURL)
	}
	defer func() { _ = rdb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n := notifications.NewNotifier(rdb)
	err = n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if *filter != "" && !strings.Contains(payload, `"`+*filter+`"`) {
			return
		}
		log.Printf("%s %s", channel, payload)
	})
	if err != nil {
		log.Fatalf("Subscribe failed: %v", err)
	}

	log.Println("Watching notifications, press Ctrl+C to stop")
	<-ctx.Done()
}
