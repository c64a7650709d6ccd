package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EmergencyState is the live emergency signal of one doctor. It is
// operational state only and never alters a visit's own emergency flag.
type EmergencyState struct {
	DoctorID    uuid.UUID  `json:"doctor_id"`
	VisitID     *uuid.UUID `json:"visit_id,omitempty"`
	TokenNumber int        `json:"token_number,omitempty"`
	PatientName string     `json:"patient_name,omitempty"`
	RoomNumber  string     `json:"room_number,omitempty"`
	ActivatedAt time.Time  `json:"activated_at"`
}

// EmergencyRegistry stores which doctors currently have an active emergency
type EmergencyRegistry interface {
	Activate(ctx context.Context, state EmergencyState) error
	Clear(ctx context.Context, doctorID uuid.UUID) error
	Get(ctx context.Context, doctorID uuid.UUID) (*EmergencyState, error)
	List(ctx context.Context) ([]EmergencyState, error)
}

type MemoryEmergencyRegistry struct {
	mu     sync.RWMutex
	states map[uuid.UUID]EmergencyState
}

func NewMemoryEmergencyRegistry() *MemoryEmergencyRegistry {
	return &MemoryEmergencyRegistry{states: make(map[uuid.UUID]EmergencyState)}
}

func (r *MemoryEmergencyRegistry) Activate(ctx context.Context, state EmergencyState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.DoctorID] = state
	return nil
}

func (r *MemoryEmergencyRegistry) Clear(ctx context.Context, doctorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, doctorID)
	return nil
}

func (r *MemoryEmergencyRegistry) Get(ctx context.Context, doctorID uuid.UUID) (*EmergencyState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.states[doctorID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *MemoryEmergencyRegistry) List(ctx context.Context) ([]EmergencyState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make([]EmergencyState, 0, len(r.states))
	for _, s := range r.states {
		states = append(states, s)
	}
	sortEmergencies(states)
	return states, nil
}

// RedisEmergencyHashKey holds one JSON field per doctor with an active emergency
const RedisEmergencyHashKey = "emergency:active"

// RedisEmergencyRegistry shares emergency state between app instances
type RedisEmergencyRegistry struct {
	redisClient *redis.Client
}

func NewRedisEmergencyRegistry(redisClient *redis.Client) *RedisEmergencyRegistry {
	return &RedisEmergencyRegistry{redisClient: redisClient}
}

func (r *RedisEmergencyRegistry) Activate(ctx context.Context, state EmergencyState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal emergency state: %w", err)
	}
	if err := r.redisClient.HSet(ctx, RedisEmergencyHashKey, state.DoctorID.String(), data).Err(); err != nil {
		return fmt.Errorf("store emergency state for %s: %w", state.DoctorID, err)
	}
	return nil
}

func (r *RedisEmergencyRegistry) Clear(ctx context.Context, doctorID uuid.UUID) error {
	if err := r.redisClient.HDel(ctx, RedisEmergencyHashKey, doctorID.String()).Err(); err != nil {
		return fmt.Errorf("clear emergency state for %s: %w", doctorID, err)
	}
	return nil
}

func (r *RedisEmergencyRegistry) Get(ctx context.Context, doctorID uuid.UUID) (*EmergencyState, error) {
	data, err := r.redisClient.HGet(ctx, RedisEmergencyHashKey, doctorID.String()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get emergency state for %s: %w", doctorID, err)
	}
	var state EmergencyState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode emergency state for %s: %w", doctorID, err)
	}
	return &state, nil
}

func (r *RedisEmergencyRegistry) List(ctx context.Context) ([]EmergencyState, error) {
	fields, err := r.redisClient.HGetAll(ctx, RedisEmergencyHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list emergency states: %w", err)
	}
	states := make([]EmergencyState, 0, len(fields))
	for doctorID, raw := range fields {
		var state EmergencyState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, fmt.Errorf("decode emergency state for %s: %w", doctorID, err)
		}
		states = append(states, state)
	}
	sortEmergencies(states)
	return states, nil
}

func sortEmergencies(states []EmergencyState) {
	sort.Slice(states, func(i, j int) bool { return states[i].ActivatedAt.Before(states[j].ActivatedAt) })
}
