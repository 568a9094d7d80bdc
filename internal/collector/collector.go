// Package collector drives the periodic intake of environmental data. It
// pulls the weather and soil sources on their own cadences, sanitizes the
// combined reading and hands it to the pipeline. Source failures degrade
// to estimates or, as a last resort, a fixed fallback reading, so the day
// never goes unrecorded.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/farmwatch/blight-server/internal/protocol"
	"github.com/farmwatch/blight-server/internal/reading"
	"github.com/farmwatch/blight-server/internal/scheduler"
	"github.com/farmwatch/blight-server/internal/source"
)

// Farm is one collection target
type Farm struct {
	FarmerID    string
	Coordinates reading.Coordinates
}

// Publisher is where cleaned readings go. Satisfied by queue.Producer.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Collector owns the collection schedule and the soil-observation cache
type Collector struct {
	weather   source.WeatherSource
	soil      source.SoilSource
	publisher Publisher
	farms     []Farm

	weatherInterval time.Duration
	soilInterval    time.Duration
	fetchTimeout    time.Duration

	sched *scheduler.Scheduler

	mu       sync.Mutex
	lastSoil *source.SoilObservation
}

// New creates a collector for the given farms
func New(weather source.WeatherSource, soil source.SoilSource, publisher Publisher,
	farms []Farm, weatherInterval, soilInterval, fetchTimeout time.Duration) *Collector {
	return &Collector{
		weather:         weather,
		soil:            soil,
		publisher:       publisher,
		farms:           farms,
		weatherInterval: weatherInterval,
		soilInterval:    soilInterval,
		fetchTimeout:    fetchTimeout,
		sched:           scheduler.New(),
	}
}

// Start begins collection: an immediate run of both jobs, then each at its
// configured period. The scheduler tick never blocks on a slow fetch.
func (c *Collector) Start() error {
	c.sched.Start()

	if err := c.sched.Every("soil-collection", c.soilInterval, c.collectSoil); err != nil {
		return err
	}
	if err := c.sched.Every("weather-collection", c.weatherInterval, c.collectWeather); err != nil {
		return err
	}
	return nil
}

// Stop stops scheduling further collection ticks. In-flight fetches are
// allowed to complete or fail independently.
func (c *Collector) Stop() {
	c.sched.Stop()
}

// collectSoil refreshes the cached soil observation. A failing sensor is
// an expected condition: it is logged as a warning and the cache is left
// as-is, so the next weather tick falls back to estimation.
func (c *Collector) collectSoil() {
	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	obs, err := c.soil.Fetch(ctx)
	if err != nil {
		fmt.Printf("Warning: soil sensor fetch failed: %v\n", err)
		return
	}

	c.mu.Lock()
	c.lastSoil = &obs
	c.mu.Unlock()
}

// collectWeather fetches conditions for every farm and publishes one
// cleaned reading each. On fetch failure the fixed fallback reading is
// published instead so dependent analytics never see a gap day.
func (c *Collector) collectWeather() {
	now := time.Now().UTC()

	for _, farm := range c.farms {
		msg := c.buildReading(farm, now)
		c.publish(farm.FarmerID, msg)
	}
}

func (c *Collector) buildReading(farm Farm, now time.Time) *protocol.ReadingMessage {
	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	obs, err := c.weather.Fetch(ctx, farm.Coordinates.Lat, farm.Coordinates.Lon)
	if err != nil {
		fmt.Printf("Warning: weather fetch failed for farmer %s, using fallback reading: %v\n",
			farm.FarmerID, err)
		return &protocol.ReadingMessage{
			FarmerID:    farm.FarmerID,
			Reading:     reading.Fallback(farm.Coordinates, now),
			Substituted: true,
			Notes:       []string{"weather source unavailable, fallback reading recorded"},
			CollectedAt: now,
		}
	}

	raw := reading.Reading{
		Timestamp:    obs.Timestamp,
		Temperature:  obs.Temperature,
		Humidity:     obs.Humidity,
		Rainfall:     obs.Rainfall,
		SoilMoisture: c.freshSoilMoisture(now),
		Coordinates:  farm.Coordinates,
	}
	if raw.Timestamp.IsZero() {
		raw.Timestamp = now
	}

	result := reading.Validate(raw)

	return &protocol.ReadingMessage{
		FarmerID:    farm.FarmerID,
		Reading:     result.Cleaned,
		Substituted: !result.IsValid,
		Notes:       append(result.Errors, result.Notes...),
		CollectedAt: now,
	}
}

// freshSoilMoisture returns the cached sensor value if it is recent
// enough, nil otherwise. Staleness bound is two soil intervals.
func (c *Collector) freshSoilMoisture(now time.Time) *float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastSoil == nil {
		return nil
	}
	if now.Sub(c.lastSoil.Timestamp) > 2*c.soilInterval {
		return nil
	}
	moisture := c.lastSoil.SoilMoisture
	return &moisture
}

func (c *Collector) publish(farmerID string, msg *protocol.ReadingMessage) {
	data, err := protocol.EncodeReadingMessage(msg)
	if err != nil {
		fmt.Printf("Failed to encode reading for farmer %s: %v\n", farmerID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	if err := c.publisher.Publish(ctx, farmerID, data); err != nil {
		fmt.Printf("Failed to publish reading for farmer %s: %v\n", farmerID, err)
	}
}
