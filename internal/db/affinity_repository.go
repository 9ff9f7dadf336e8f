package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashfall/elementum/internal/combat"
	"github.com/ashfall/elementum/internal/element"
)

// AffinityRepository persists the elemental affinity matrix.
// Implements combat.AffinityStore.
type AffinityRepository struct {
	pool *pgxpool.Pool
}

// NewAffinityRepository creates a repository over the pool.
func NewAffinityRepository(pool *pgxpool.Pool) *AffinityRepository {
	return &AffinityRepository{pool: pool}
}

// LoadAll returns every persisted affinity cell. Rows with element names
// this build does not know are skipped, not fatal: the matrix may be
// authored ahead of a data update.
func (r *AffinityRepository) LoadAll(ctx context.Context) ([]combat.AffinityEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT attack, defense, multiplier FROM elemental_affinity`)
	if err != nil {
		return nil, fmt.Errorf("querying affinity matrix: %w", err)
	}
	defer rows.Close()

	var entries []combat.AffinityEntry
	for rows.Next() {
		var attack, defense string
		var multiplier float64
		if err := rows.Scan(&attack, &defense, &multiplier); err != nil {
			return nil, fmt.Errorf("scanning affinity row: %w", err)
		}
		atk, err := element.Parse(attack)
		if err != nil {
			continue
		}
		def, err := element.Parse(defense)
		if err != nil {
			continue
		}
		entries = append(entries, combat.AffinityEntry{Attack: atk, Defense: def, Multiplier: multiplier})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading affinity matrix: %w", err)
	}
	return entries, nil
}

// Upsert writes one affinity cell.
func (r *AffinityRepository) Upsert(ctx context.Context, e combat.AffinityEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO elemental_affinity (attack, defense, multiplier, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (attack, defense)
		 DO UPDATE SET multiplier = EXCLUDED.multiplier, updated_at = now()`,
		e.Attack.String(), e.Defense.String(), e.Multiplier,
	)
	if err != nil {
		return fmt.Errorf("upserting affinity %s->%s: %w", e.Attack, e.Defense, err)
	}
	return nil
}
