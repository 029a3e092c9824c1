package session

import "sync"

// DefaultAdCadence is how many delivered tracks pass between ad slots.
const DefaultAdCadence = 5

// DeliveryCounter counts tracks handed to each user and signals every Nth
// delivery so the caller can interleave promotional content.
type DeliveryCounter struct {
	cadence int
	mu      sync.Mutex
	counts  map[int64]int
}

func NewDeliveryCounter(cadence int) *DeliveryCounter {
	if cadence <= 0 {
		cadence = DefaultAdCadence
	}
	return &DeliveryCounter{
		cadence: cadence,
		counts:  make(map[int64]int),
	}
}

// RecordDelivery notes one delivered track and reports whether this delivery
// lands on the cadence boundary.
func (c *DeliveryCounter) RecordDelivery(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[userID]++
	return c.counts[userID]%c.cadence == 0
}

// Count returns how many tracks the user has received so far.
func (c *DeliveryCounter) Count(userID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[userID]
}

// Reset clears the user's delivery count.
func (c *DeliveryCounter) Reset(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, userID)
}
