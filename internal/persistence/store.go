// Package persistence is the on-disk checkpoint layer: load a prior
// run's state back in, or checkpoint the running one.
// Session opens a Transaction with commit/rollback so a multi-entity
// checkpoint lands atomically; the Store's own methods are one-shot
// autocommit conveniences over the same statements.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/village-sim/internal/world"
)

// Store is a thin sqlx wrapper persisting whole-entity JSON blobs keyed
// by id — the schema doesn't need to be queryable by field, only
// recoverable by id, so blob columns match the store's access pattern.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	id   TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS locations (
	id   TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS relationships (
	agent_id  TEXT NOT NULL,
	target_id TEXT NOT NULL,
	data      TEXT NOT NULL,
	PRIMARY KEY (agent_id, target_id)
);
CREATE TABLE IF NOT EXISTS memories (
	id       TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	tier     TEXT NOT NULL,
	data     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS goals (
	id       TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	data     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id   TEXT PRIMARY KEY,
	seq  INTEGER,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS clock (
	id   INTEGER PRIMARY KEY CHECK (id = 0),
	data TEXT NOT NULL
);
`

// Open opens (creating if absent) the sqlite database at path and runs
// the migration. WAL mode and a busy timeout keep the single writer and
// any concurrent read-only reporting tools from colliding.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Transaction is one atomic unit of persistence work: every save and
// load inside it observes a consistent snapshot, and nothing is durable
// until Commit. Rollback discards all of it.
type Transaction struct {
	tx *sqlx.Tx
}

// Session begins a new Transaction. The caller must finish it with
// Commit or Rollback.
func (s *Store) Session() (*Transaction, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("persistence: begin session: %w", err)
	}
	return &Transaction{tx: tx}, nil
}

// Commit makes the transaction's writes durable.
func (t *Transaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("persistence: commit: %w", err)
	}
	return nil
}

// Rollback discards the transaction's writes. Safe to call after a
// failed Commit.
func (t *Transaction) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("persistence: rollback: %w", err)
	}
	return nil
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("persistence: marshal: %w", err)
	}
	return string(b), nil
}

// The statement helpers below take sqlx.Ext so the Store's autocommit
// methods and Transaction share one implementation.

func saveAgent(e sqlx.Ext, a world.Agent) error {
	data, err := marshal(a)
	if err != nil {
		return err
	}
	_, err = e.Exec(`INSERT INTO agents (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, a.ID.String(), data)
	return err
}

func loadAgents(e sqlx.Ext) ([]world.Agent, error) {
	var rows []struct {
		Data string `db:"data"`
	}
	if err := sqlx.Select(e, &rows, `SELECT data FROM agents`); err != nil {
		return nil, fmt.Errorf("persistence: load agents: %w", err)
	}
	out := make([]world.Agent, 0, len(rows))
	for _, r := range rows {
		var a world.Agent
		if err := json.Unmarshal([]byte(r.Data), &a); err != nil {
			return nil, fmt.Errorf("persistence: decode agent: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func saveLocation(e sqlx.Ext, l world.Location) error {
	data, err := marshal(l)
	if err != nil {
		return err
	}
	_, err = e.Exec(`INSERT INTO locations (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, l.ID.String(), data)
	return err
}

func loadLocations(e sqlx.Ext) ([]world.Location, error) {
	var rows []struct {
		Data string `db:"data"`
	}
	if err := sqlx.Select(e, &rows, `SELECT data FROM locations`); err != nil {
		return nil, fmt.Errorf("persistence: load locations: %w", err)
	}
	out := make([]world.Location, 0, len(rows))
	for _, r := range rows {
		var l world.Location
		if err := json.Unmarshal([]byte(r.Data), &l); err != nil {
			return nil, fmt.Errorf("persistence: decode location: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}

func saveRelationship(e sqlx.Ext, r world.Relationship) error {
	data, err := marshal(r)
	if err != nil {
		return err
	}
	_, err = e.Exec(`INSERT INTO relationships (agent_id, target_id, data) VALUES (?, ?, ?)
		ON CONFLICT(agent_id, target_id) DO UPDATE SET data = excluded.data`,
		r.AgentID.String(), r.TargetID.String(), data)
	return err
}

func loadRelationships(e sqlx.Ext) ([]world.Relationship, error) {
	var rows []struct {
		Data string `db:"data"`
	}
	if err := sqlx.Select(e, &rows, `SELECT data FROM relationships`); err != nil {
		return nil, fmt.Errorf("persistence: load relationships: %w", err)
	}
	out := make([]world.Relationship, 0, len(rows))
	for _, r := range rows {
		var rel world.Relationship
		if err := json.Unmarshal([]byte(r.Data), &rel); err != nil {
			return nil, fmt.Errorf("persistence: decode relationship: %w", err)
		}
		out = append(out, rel)
	}
	return out, nil
}

func saveMemory(e sqlx.Ext, m world.Memory) error {
	data, err := marshal(m)
	if err != nil {
		return err
	}
	_, err = e.Exec(`INSERT INTO memories (id, agent_id, tier, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		m.ID.String(), m.AgentID.String(), string(m.Kind), data)
	return err
}

func loadMemories(e sqlx.Ext, agentID string) ([]world.Memory, error) {
	var rows []struct {
		Data string `db:"data"`
	}
	if err := sqlx.Select(e, &rows, `SELECT data FROM memories WHERE agent_id = ?`, agentID); err != nil {
		return nil, fmt.Errorf("persistence: load memories: %w", err)
	}
	out := make([]world.Memory, 0, len(rows))
	for _, r := range rows {
		var m world.Memory
		if err := json.Unmarshal([]byte(r.Data), &m); err != nil {
			return nil, fmt.Errorf("persistence: decode memory: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func saveGoal(e sqlx.Ext, g world.Goal) error {
	data, err := marshal(g)
	if err != nil {
		return err
	}
	_, err = e.Exec(`INSERT INTO goals (id, agent_id, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, g.ID.String(), g.AgentID.String(), data)
	return err
}

func loadGoals(e sqlx.Ext, agentID string) ([]world.Goal, error) {
	var rows []struct {
		Data string `db:"data"`
	}
	if err := sqlx.Select(e, &rows, `SELECT data FROM goals WHERE agent_id = ?`, agentID); err != nil {
		return nil, fmt.Errorf("persistence: load goals: %w", err)
	}
	out := make([]world.Goal, 0, len(rows))
	for _, r := range rows {
		var g world.Goal
		if err := json.Unmarshal([]byte(r.Data), &g); err != nil {
			return nil, fmt.Errorf("persistence: decode goal: %w", err)
		}
		out = append(out, g)
	}
	return out, nil
}

func saveClock(e sqlx.Ext, c world.Clock) error {
	data, err := marshal(c)
	if err != nil {
		return err
	}
	_, err = e.Exec(`INSERT INTO clock (id, data) VALUES (0, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, data)
	return err
}

func loadClock(e sqlx.Ext) (world.Clock, bool, error) {
	var data string
	if err := sqlx.Get(e, &data, `SELECT data FROM clock WHERE id = 0`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return world.Clock{}, false, nil
		}
		return world.Clock{}, false, fmt.Errorf("persistence: load clock: %w", err)
	}
	var c world.Clock
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return world.Clock{}, false, fmt.Errorf("persistence: decode clock: %w", err)
	}
	return c, true, nil
}

// Typed accessors on Transaction.

func (t *Transaction) SaveAgent(a world.Agent) error          { return saveAgent(t.tx, a) }
func (t *Transaction) LoadAgents() ([]world.Agent, error)     { return loadAgents(t.tx) }
func (t *Transaction) SaveLocation(l world.Location) error    { return saveLocation(t.tx, l) }
func (t *Transaction) LoadLocations() ([]world.Location, error) {
	return loadLocations(t.tx)
}
func (t *Transaction) SaveRelationship(r world.Relationship) error { return saveRelationship(t.tx, r) }
func (t *Transaction) LoadRelationships() ([]world.Relationship, error) {
	return loadRelationships(t.tx)
}
func (t *Transaction) SaveMemory(m world.Memory) error { return saveMemory(t.tx, m) }
func (t *Transaction) LoadMemories(agentID string) ([]world.Memory, error) {
	return loadMemories(t.tx, agentID)
}
func (t *Transaction) SaveGoal(g world.Goal) error { return saveGoal(t.tx, g) }
func (t *Transaction) LoadGoals(agentID string) ([]world.Goal, error) {
	return loadGoals(t.tx, agentID)
}
func (t *Transaction) SaveClock(c world.Clock) error { return saveClock(t.tx, c) }
func (t *Transaction) LoadClock() (world.Clock, bool, error) {
	return loadClock(t.tx)
}

// One-shot autocommit conveniences on Store.

// SaveAgent upserts one agent's full state.
func (s *Store) SaveAgent(a world.Agent) error { return saveAgent(s.db, a) }

// LoadAgents returns every persisted agent.
func (s *Store) LoadAgents() ([]world.Agent, error) { return loadAgents(s.db) }

// SaveLocation upserts one location's full state.
func (s *Store) SaveLocation(l world.Location) error { return saveLocation(s.db, l) }

// LoadLocations returns every persisted location.
func (s *Store) LoadLocations() ([]world.Location, error) { return loadLocations(s.db) }

// SaveRelationship upserts one relationship edge.
func (s *Store) SaveRelationship(r world.Relationship) error { return saveRelationship(s.db, r) }

// LoadRelationships returns every persisted relationship edge.
func (s *Store) LoadRelationships() ([]world.Relationship, error) { return loadRelationships(s.db) }

// SaveMemory upserts one memory record.
func (s *Store) SaveMemory(m world.Memory) error { return saveMemory(s.db, m) }

// LoadMemories returns every persisted memory for one agent.
func (s *Store) LoadMemories(agentID string) ([]world.Memory, error) {
	return loadMemories(s.db, agentID)
}

// SaveGoal upserts one goal record.
func (s *Store) SaveGoal(g world.Goal) error { return saveGoal(s.db, g) }

// LoadGoals returns every persisted goal for one agent.
func (s *Store) LoadGoals(agentID string) ([]world.Goal, error) {
	return loadGoals(s.db, agentID)
}

// SaveClock persists the singleton world clock.
func (s *Store) SaveClock(c world.Clock) error { return saveClock(s.db, c) }

// LoadClock returns the persisted world clock, or false if none exists
// yet (a fresh database).
func (s *Store) LoadClock() (world.Clock, bool, error) { return loadClock(s.db) }
