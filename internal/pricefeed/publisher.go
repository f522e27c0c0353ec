package pricefeed

import (
	"context"
	"log"
	"time"
)

// StartPublisher polls the upstream feed, applies the current markup and
// publishes quote events on the bus. Feed or markup failures are logged
// and the previous quotes simply stay current until the next poll.
func StartPublisher(ctx context.Context, bus *Bus, client *Client, store *Store, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		publishOnce(ctx, bus, client, store)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				publishOnce(ctx, bus, client, store)
			}
		}
	}()
}

func publishOnce(ctx context.Context, bus *Bus, client *Client, store *Store) {
	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	quotes, err := client.Fetch(fetchCtx)
	if err != nil {
		log.Printf("price feed fetch: %v", err)
		return
	}
	markup, err := store.GetMarkup(fetchCtx)
	if err != nil {
		log.Printf("price feed markup: %v", err)
		return
	}
	bus.Publish(Event{Type: "quotes", Data: ApplyMarkup(quotes, markup)})
}
