package repository

import (
	"context"
	"errors"

	"github.com/axondocs/axon/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PersonaRepository persists persona configuration and the document-set names
// each persona scopes retrieval to.
type PersonaRepository struct {
	pool *pgxpool.Pool
}

func NewPersonaRepository(pool *pgxpool.Pool) *PersonaRepository {
	return &PersonaRepository{pool: pool}
}

func (r *PersonaRepository) GetByID(ctx context.Context, id int) (*domain.Persona, error) {
	var persona domain.Persona
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, prompt_ids, num_chunks, llm_relevance_filter,
		        llm_filter_extraction, recency_bias, datetime_aware, created_at, updated_at
		 FROM personas WHERE id = $1`,
		id,
	).Scan(
		&persona.ID, &persona.Name, &persona.Description, &persona.PromptIDs,
		&persona.NumChunks, &persona.LLMRelevanceFilter, &persona.LLMFilterExtraction,
		&persona.RecencyBias, &persona.DatetimeAware, &persona.CreatedAt, &persona.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPersonaNotFound
		}
		return nil, err
	}

	names, err := r.documentSetNames(ctx, persona.ID)
	if err != nil {
		return nil, err
	}
	persona.DocumentSetNames = names

	return &persona, nil
}

func (r *PersonaRepository) List(ctx context.Context) ([]*domain.Persona, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, prompt_ids, num_chunks, llm_relevance_filter,
		        llm_filter_extraction, recency_bias, datetime_aware, created_at, updated_at
		 FROM personas ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var personas []*domain.Persona
	for rows.Next() {
		var persona domain.Persona
		if err := rows.Scan(
			&persona.ID, &persona.Name, &persona.Description, &persona.PromptIDs,
			&persona.NumChunks, &persona.LLMRelevanceFilter, &persona.LLMFilterExtraction,
			&persona.RecencyBias, &persona.DatetimeAware, &persona.CreatedAt, &persona.UpdatedAt,
		); err != nil {
			return nil, err
		}
		personas = append(personas, &persona)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, persona := range personas {
		names, err := r.documentSetNames(ctx, persona.ID)
		if err != nil {
			return nil, err
		}
		persona.DocumentSetNames = names
	}

	return personas, nil
}

// Create inserts the persona and its document-set name links in one
// transaction. The generated id is written back onto the persona.
func (r *PersonaRepository) Create(ctx context.Context, persona *domain.Persona) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO personas (name, description, prompt_ids, num_chunks, llm_relevance_filter,
		                       llm_filter_extraction, recency_bias, datetime_aware, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		persona.Name, persona.Description, persona.PromptIDs, persona.NumChunks,
		persona.LLMRelevanceFilter, persona.LLMFilterExtraction, persona.RecencyBias,
		persona.DatetimeAware, persona.CreatedAt, persona.UpdatedAt,
	).Scan(&persona.ID)
	if err != nil {
		return err
	}

	for _, name := range persona.DocumentSetNames {
		if _, err := tx.Exec(ctx,
			`INSERT INTO persona_document_sets (persona_id, document_set_name) VALUES ($1, $2)`,
			persona.ID, name,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PersonaRepository) Update(ctx context.Context, persona *domain.Persona) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmdTag, err := tx.Exec(ctx,
		`UPDATE personas
		 SET name = $1, description = $2, prompt_ids = $3, num_chunks = $4,
		     llm_relevance_filter = $5, llm_filter_extraction = $6, recency_bias = $7,
		     datetime_aware = $8, updated_at = $9
		 WHERE id = $10`,
		persona.Name, persona.Description, persona.PromptIDs, persona.NumChunks,
		persona.LLMRelevanceFilter, persona.LLMFilterExtraction, persona.RecencyBias,
		persona.DatetimeAware, persona.UpdatedAt, persona.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrPersonaNotFound
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM persona_document_sets WHERE persona_id = $1`, persona.ID,
	); err != nil {
		return err
	}

	for _, name := range persona.DocumentSetNames {
		if _, err := tx.Exec(ctx,
			`INSERT INTO persona_document_sets (persona_id, document_set_name) VALUES ($1, $2)`,
			persona.ID, name,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PersonaRepository) documentSetNames(ctx context.Context, personaID int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT document_set_name FROM persona_document_sets
		 WHERE persona_id = $1 ORDER BY document_set_name`,
		personaID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
