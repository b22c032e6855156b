// Package metrics exports history and scene activity as prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/heliocanvas/internal/command"
	"github.com/dshills/heliocanvas/internal/observable"
	"github.com/dshills/heliocanvas/internal/scene"
)

// Collector holds the heliocanvas metrics.
type Collector struct {
	history   *prometheus.CounterVec
	undoDepth prometheus.Gauge
	redoDepth prometheus.Gauge
	objects   prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		history: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "history",
				Name:      "events_total",
				Help:      "Total history events by kind",
			},
			[]string{"event"},
		),
		undoDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "undo_depth",
			Help:      "Commands on the undo stack",
		}),
		redoDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "redo_depth",
			Help:      "Commands on the redo stack",
		}),
		objects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scene",
			Name:      "objects",
			Help:      "Objects in the scene",
		}),
	}

	for _, col := range []prometheus.Collector{c.history, c.undoDepth, c.redoDepth, c.objects} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveManager updates the history metrics from m's signals until the
// returned function is called.
func (c *Collector) ObserveManager(m *command.Manager) observable.Unsubscribe {
	signals := []command.Signal{
		command.SignalExecuted,
		command.SignalUndone,
		command.SignalRedone,
		command.SignalCleared,
		command.SignalFailed,
		command.SignalTrimmed,
	}

	unsubs := make([]observable.Unsubscribe, 0, len(signals))
	for _, sig := range signals {
		counter := c.history.WithLabelValues(string(sig))
		unsubs = append(unsubs, m.Connect(sig, func() {
			counter.Inc()
			c.undoDepth.Set(float64(m.UndoCount()))
			c.redoDepth.Set(float64(m.RedoCount()))
		}))
	}
	c.undoDepth.Set(float64(m.UndoCount()))
	c.redoDepth.Set(float64(m.RedoCount()))

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// ObserveScene tracks the object count of s.
func (c *Collector) ObserveScene(s *scene.Scene) observable.Unsubscribe {
	c.objects.Set(float64(s.Len()))
	return observable.Watch(s, scene.PropCount, func(n int) {
		c.objects.Set(float64(n))
	})
}

// Unregister removes the metrics from reg.
func (c *Collector) Unregister(reg prometheus.Registerer) error {
	var errs []error
	for _, col := range []prometheus.Collector{c.history, c.undoDepth, c.redoDepth, c.objects} {
		if !reg.Unregister(col) {
			errs = append(errs, errors.New("metrics: collector was not registered"))
		}
	}
	return errors.Join(errs...)
}
