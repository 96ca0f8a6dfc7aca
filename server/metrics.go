// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/prometheus/client_golang/prometheus"

	a2aserver "github.com/go-a2a/a2a-server"
)

// Metrics instruments the task runtime with Prometheus counters and
// gauges. A nil *Metrics is valid and records nothing.
type Metrics struct {
	rpcRequests     *prometheus.CounterVec
	tasksCreated    *prometheus.CounterVec
	taskTransitions *prometheus.CounterVec
	eventsPublished prometheus.Counter
	eventsDropped   prometheus.Counter
	subscribers     prometheus.Gauge
}

// NewMetrics creates task runtime metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2a",
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests handled, by method and outcome.",
		}, []string{"method", "outcome"}),
		tasksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2a",
			Name:      "tasks_created_total",
			Help:      "Tasks created, by handler.",
		}, []string{"handler"}),
		taskTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2a",
			Name:      "task_transitions_total",
			Help:      "Task state transitions, by target state.",
		}, []string{"state"}),
		eventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "a2a",
			Name:      "events_published_total",
			Help:      "Task events published on the event bus.",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "a2a",
			Name:      "events_dropped_total",
			Help:      "Event deliveries dropped for slow subscribers.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "a2a",
			Name:      "event_subscribers",
			Help:      "Current event bus subscribers.",
		}),
	}
	reg.MustRegister(
		m.rpcRequests,
		m.tasksCreated,
		m.taskTransitions,
		m.eventsPublished,
		m.eventsDropped,
		m.subscribers,
	)
	return m
}

// RPCRequest records one handled JSON-RPC request.
func (m *Metrics) RPCRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
}

// TaskCreated records one created task.
func (m *Metrics) TaskCreated(handler string) {
	if m == nil {
		return
	}
	m.tasksCreated.WithLabelValues(handler).Inc()
}

// TaskTransition records one task state transition.
func (m *Metrics) TaskTransition(state a2aserver.TaskState) {
	if m == nil {
		return
	}
	m.taskTransitions.WithLabelValues(string(state)).Inc()
}

// EventPublished records one published event.
func (m *Metrics) EventPublished() {
	if m == nil {
		return
	}
	m.eventsPublished.Inc()
}

// EventDropped records one dropped event delivery.
func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

// SubscriberAdded records a new event bus subscriber.
func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

// SubscriberRemoved records a departed event bus subscriber.
func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}
