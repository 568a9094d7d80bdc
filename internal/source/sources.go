// Package source declares the external data-source collaborators the
// pipeline consumes. Implementations (third-party weather APIs, the soil
// sensor gateway, the image-classification model) live outside this
// repository.
package source

import (
	"context"
	"time"
)

// WeatherObservation is one fetch from a weather provider
type WeatherObservation struct {
	Temperature   float64 // °C
	Humidity      float64 // %
	Rainfall      float64 // mm since last observation
	Timestamp     time.Time
	LocationLabel string
}

// WeatherSource fetches current conditions for a coordinate
type WeatherSource interface {
	Fetch(ctx context.Context, lat, lon float64) (WeatherObservation, error)
}

// SoilObservation is one fetch from the soil-moisture sensor feed
type SoilObservation struct {
	SoilMoisture float64 // %
	Timestamp    time.Time
}

// SoilSource fetches the latest soil-moisture reading. The feed may be
// absent or erroring; callers must tolerate failure and fall back to
// estimation.
type SoilSource interface {
	Fetch(ctx context.Context) (SoilObservation, error)
}

// Classification is the image model's verdict on a plant photo
type Classification struct {
	Condition      string
	Confidence     float64 // 0-100
	Recommendation string
	Symptoms       []string
}

// Classifier runs the blight image model against a photo. The contextual
// CRI lets the model weigh environmental conditions alongside the image.
type Classifier interface {
	Classify(ctx context.Context, imageBytes []byte, contextualCRI float64) (Classification, error)
}
