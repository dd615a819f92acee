// Package coordination implements the Coordination Store: a namespaced,
// Redis-backed ephemeral store with pub/sub and per-workflow timelines,
// used to hand small amounts of cross-agent state through a backend the
// whole fleet can reach (unlike the in-process Memory Store).
//
// Grounded on the client-wrapping and namespacing pattern in
// itsneelabh-gomind's core/redis_client.go (key prefixing, TTL-bearing
// operations, health check) and the execution-list/pub-sub shape of its
// orchestration/workflow_state.go and hitl_command_store.go, rebuilt
// against github.com/redis/go-redis/v9 for this module's namespaces:
// coord:, scratch:, notify:, timeline:, state:.
package coordination

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/localagent/orchestrator/logger"
)

const (
	coordTTL    = 3600 * time.Second
	scratchTTL  = 1800 * time.Second
	stateTTL    = 7200 * time.Second
	timelineTTL = 86400 * time.Second
)

const (
	prefixCoord    = "coord:"
	prefixScratch  = "scratch:"
	prefixNotify   = "notify:"
	prefixTimeline = "timeline:"
	prefixState    = "state:"
)

// TimelineEvent is one entry in a per-workflow timeline list.
type TimelineEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Data      any       `json:"data"`
}

// HealthStatus reports the coordination backend's reachability and vitals.
type HealthStatus struct {
	Healthy          bool
	LatencyMS        int64
	Version          string
	ConnectedClients int
	MemoryUsed       string
}

// Store is the Redis-backed coordination store. A Store with a nil
// client (or one whose backend is unreachable) runs in degraded mode:
// every operation returns its zero value / false rather than erroring,
// and the rest of the system is expected to continue without it.
type Store struct {
	client    *redis.Client
	available bool
	logger    *slog.Logger
}

// New wraps an existing *redis.Client. Call Initialize to probe
// reachability before relying on Available().
func New(client *redis.Client, log *slog.Logger) *Store {
	return &Store{client: client, logger: logger.Or(log)}
}

// Initialize pings the backend and records whether it's reachable,
// returning that same boolean. The store remains usable either way: a
// failed Initialize just means every subsequent operation degrades.
func (s *Store) Initialize(ctx context.Context) bool {
	if s.client == nil {
		s.available = false
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Ping(pingCtx).Err(); err != nil {
		s.logger.Warn("coordination: backend unreachable, continuing in degraded mode", "error", err)
		s.available = false
		return false
	}
	s.available = true
	return true
}

// Available reports whether the last Initialize call succeeded.
func (s *Store) Available() bool { return s.available }

// SetCoord stores value (JSON-encoded) under coord:{key} with the given
// TTL (defaulting to 3600s when ttl is zero). Returns false in degraded mode.
func (s *Store) SetCoord(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !s.available {
		return false
	}
	if ttl <= 0 {
		ttl = coordTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("coordination: could not marshal coord value", "key", key, "error", err)
		return false
	}
	if err := s.client.Set(ctx, prefixCoord+key, data, ttl).Err(); err != nil {
		s.logger.Warn("coordination: set_coord failed", "key", key, "error", err)
		return false
	}
	return true
}

// GetCoord retrieves the value stored under coord:{key}, or nil if
// absent, expired, or the backend is unavailable.
func (s *Store) GetCoord(ctx context.Context, key string) map[string]any {
	return s.getJSONMap(ctx, prefixCoord+key)
}

// UpdateScratch merges delta into the existing value at scratch:{stream},
// refreshing its TTL to 1800s.
func (s *Store) UpdateScratch(ctx context.Context, stream string, delta map[string]any) bool {
	if !s.available {
		return false
	}
	key := prefixScratch + stream
	current := s.getJSONMap(ctx, key)
	if current == nil {
		current = make(map[string]any)
	}
	for k, v := range delta {
		current[k] = v
	}
	data, err := json.Marshal(current)
	if err != nil {
		s.logger.Warn("coordination: could not marshal scratch value", "stream", stream, "error", err)
		return false
	}
	if err := s.client.Set(ctx, key, data, scratchTTL).Err(); err != nil {
		s.logger.Warn("coordination: update_scratch failed", "stream", stream, "error", err)
		return false
	}
	return true
}

// Publish sends message on notify:{channel}.
func (s *Store) Publish(ctx context.Context, channel string, message any) bool {
	if !s.available {
		return false
	}
	data, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn("coordination: could not marshal publish message", "channel", channel, "error", err)
		return false
	}
	if err := s.client.Publish(ctx, prefixNotify+channel, data).Err(); err != nil {
		s.logger.Warn("coordination: publish failed", "channel", channel, "error", err)
		return false
	}
	return true
}

// Subscribe returns a *redis.PubSub subscribed to notify:{channel}, or
// nil if the backend is unavailable.
func (s *Store) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if !s.available {
		return nil
	}
	return s.client.Subscribe(ctx, prefixNotify+channel)
}

// AddTimeline appends {timestamp, eventType, data} to the workflow's
// timeline list and refreshes the list's TTL to 24h.
func (s *Store) AddTimeline(ctx context.Context, workflowID, eventType string, data any) bool {
	if !s.available {
		return false
	}
	event := TimelineEvent{Timestamp: time.Now().UTC(), EventType: eventType, Data: data}
	encoded, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("coordination: could not marshal timeline event", "workflow_id", workflowID, "error", err)
		return false
	}

	key := prefixTimeline + workflowID
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, encoded)
	pipe.Expire(ctx, key, timelineTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("coordination: add_timeline failed", "workflow_id", workflowID, "error", err)
		return false
	}
	return true
}

// GetTimeline returns up to limit timeline events for workflowID,
// newest-first (default limit 100).
func (s *Store) GetTimeline(ctx context.Context, workflowID string, limit int) []TimelineEvent {
	if !s.available {
		return nil
	}
	if limit <= 0 {
		limit = 100
	}
	raw, err := s.client.LRange(ctx, prefixTimeline+workflowID, 0, int64(limit-1)).Result()
	if err != nil {
		s.logger.Warn("coordination: get_timeline failed", "workflow_id", workflowID, "error", err)
		return nil
	}

	events := make([]TimelineEvent, 0, len(raw))
	for _, item := range raw {
		var event TimelineEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events
}

// SetState stores state (JSON-encoded) under state:{workflowID} with the
// given TTL (defaulting to 7200s).
func (s *Store) SetState(ctx context.Context, workflowID string, state any, ttl time.Duration) bool {
	if !s.available {
		return false
	}
	if ttl <= 0 {
		ttl = stateTTL
	}
	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Warn("coordination: could not marshal state", "workflow_id", workflowID, "error", err)
		return false
	}
	if err := s.client.Set(ctx, prefixState+workflowID, data, ttl).Err(); err != nil {
		s.logger.Warn("coordination: set_state failed", "workflow_id", workflowID, "error", err)
		return false
	}
	return true
}

// GetState retrieves the value stored under state:{workflowID}.
func (s *Store) GetState(ctx context.Context, workflowID string) map[string]any {
	return s.getJSONMap(ctx, prefixState+workflowID)
}

// Health reports the backend's reachability and basic vitals.
func (s *Store) Health(ctx context.Context) HealthStatus {
	if s.client == nil {
		return HealthStatus{Healthy: false}
	}

	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Ping(pingCtx).Err(); err != nil {
		return HealthStatus{Healthy: false}
	}
	latency := time.Since(start)

	info, err := s.client.Info(ctx, "server", "clients", "memory").Result()
	if err != nil {
		return HealthStatus{Healthy: true, LatencyMS: latency.Milliseconds()}
	}

	return HealthStatus{
		Healthy:          true,
		LatencyMS:        latency.Milliseconds(),
		Version:          extractInfoField(info, "redis_version"),
		ConnectedClients: atoiOrZero(extractInfoField(info, "connected_clients")),
		MemoryUsed:       extractInfoField(info, "used_memory_human"),
	}
}

// getJSONMap fetches and JSON-decodes the value at key, returning nil on
// a miss, a decode error, or an unavailable backend.
func (s *Store) getJSONMap(ctx context.Context, key string) map[string]any {
	if !s.available {
		return nil
	}
	raw, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var value map[string]any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		s.logger.Warn("coordination: could not decode stored value", "key", key, "error", err)
		return nil
	}
	return value
}
