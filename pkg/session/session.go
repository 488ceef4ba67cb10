// Package session implements the session registry (C7): a mapping from
// session id to execution context, safe for concurrent get/set/delete
// across many sessions. Each session's own operations are serialized by
// the per-Context mutex, which the interpreter holds for a whole turn.
package session

import "sync"

// State is the lifecycle state of a session's execution context.
type State int

const (
	Idle State = iota
	Running
	WaitingInput
	Finished
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Running:
		return "RUNNING"
	case WaitingInput:
		return "WAITING_INPUT"
	case Finished:
		return "FINISHED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// HistoryEntry is one turn of conversation history.
type HistoryEntry struct {
	Role    string // "user" or "assistant"
	Content string
}

// Context is one session's execution context: variables, current step,
// state, and conversation history. The interpreter holds the mutex for
// the whole of each Start or ProcessInput call, so concurrent turns on
// the same Context run one after another, and a reader from outside the
// interpreter (e.g. an inspector calling Snapshot) waits for the turn in
// progress to finish.
type Context struct {
	mu sync.Mutex

	ID                string
	Variables         map[string]any
	CurrentStep       string
	State             State
	AvailableIntents  []string
	History           []HistoryEntry
	LastError         string
}

// New creates an IDLE context seeded with initialVars (copied, not
// aliased) and no current step — the interpreter sets CurrentStep to the
// script's entry step when it registers the context.
func New(id string, initialVars map[string]any) *Context {
	vars := make(map[string]any, len(initialVars))
	for k, v := range initialVars {
		vars[k] = v
	}
	return &Context{
		ID:        id,
		Variables: vars,
		State:     Idle,
	}
}

// Lock acquires the context's mutex. The interpreter takes it for each
// turn; other callers take it to read or write the fields safely.
func (c *Context) Lock() { c.mu.Lock() }

// Unlock releases the context's mutex.
func (c *Context) Unlock() { c.mu.Unlock() }

// Snapshot returns a shallow copy of the context's observable fields for
// read-only inspection (e.g. a TUI or MCP tool), without racing the
// interpreter's mutation of the live Context.
func (c *Context) Snapshot() Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	vars := make(map[string]any, len(c.Variables))
	for k, v := range c.Variables {
		vars[k] = v
	}
	return Context{
		ID:               c.ID,
		Variables:        vars,
		CurrentStep:      c.CurrentStep,
		State:            c.State,
		AvailableIntents: append([]string{}, c.AvailableIntents...),
		History:          append([]HistoryEntry{}, c.History...),
		LastError:        c.LastError,
	}
}

const shardCount = 64

type shard struct {
	mu       sync.RWMutex
	contexts map[string]*Context
}

// Registry is a sharded concurrent map from session id to *Context. A
// single global lock is adequate for small fleets, but sharding keeps
// unrelated sessions from contending on the same lock under load.
type Registry struct {
	shards [shardCount]*shard
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{contexts: make(map[string]*Context)}
	}
	return r
}

func (r *Registry) shardFor(id string) *shard {
	h := fnv32a(id)
	return r.shards[h%shardCount]
}

func fnv32a(s string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	hash := uint32(offset32)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= prime32
	}
	return hash
}

// Set stores ctx under its own ID, overwriting any existing entry — by
// contract the caller owns session-id uniqueness.
func (r *Registry) Set(ctx *Context) {
	sh := r.shardFor(ctx.ID)
	sh.mu.Lock()
	sh.contexts[ctx.ID] = ctx
	sh.mu.Unlock()
}

// Get looks up a session by id. The second return is false if absent.
func (r *Registry) Get(id string) (*Context, bool) {
	sh := r.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	ctx, ok := sh.contexts[id]
	return ctx, ok
}

// Delete drops a session's context entirely, releasing all its state.
func (r *Registry) Delete(id string) {
	sh := r.shardFor(id)
	sh.mu.Lock()
	delete(sh.contexts, id)
	sh.mu.Unlock()
}

// Len returns the total number of live sessions across all shards.
func (r *Registry) Len() int {
	total := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		total += len(sh.contexts)
		sh.mu.RUnlock()
	}
	return total
}
