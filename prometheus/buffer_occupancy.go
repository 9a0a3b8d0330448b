package prometheus

import (
	"context"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var consumerBufferOccupancy prom.Gauge

type bufferedConsumer interface {
	BufferLen() int
}

func init() {
	consumerBufferOccupancy = promauto.NewGauge(prom.GaugeOpts{
		Name: "docshelf_consumer_buffer_occupancy",
		Help: "The number of consumed events waiting in the in-memory buffer",
	})
}

func ObserveConsumerBuffer(c bufferedConsumer, ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			consumerBufferOccupancy.Set(float64(c.BufferLen()))

			time.Sleep(time.Second * 1)
		}
	}
}
