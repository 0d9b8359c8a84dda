package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"worldkit/internal/element"
	"worldkit/internal/store"
)

func (c *Client) UpsertElement(ctx context.Context, typ string, el element.Element) error {
	fieldsJSON, err := json.Marshal(el.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}

	query := `
INSERT INTO elements (element_type, id, name, description, supertype, subtype, image_url, world_id, fields, synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (element_type, id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	supertype = EXCLUDED.supertype,
	subtype = EXCLUDED.subtype,
	image_url = EXCLUDED.image_url,
	world_id = EXCLUDED.world_id,
	fields = EXCLUDED.fields,
	synced_at = now()
`

	_, err = c.pool.Exec(ctx, query,
		typ,
		el.ID,
		el.Name,
		el.Description,
		el.Supertype,
		el.Subtype,
		el.ImageURL,
		el.World,
		fieldsJSON,
	)
	if err != nil {
		return fmt.Errorf("upserting element: %w", err)
	}
	return nil
}

func (c *Client) GetElement(ctx context.Context, typ, id string) (*element.Element, error) {
	query := `
SELECT id, name, description, supertype, subtype, image_url, world_id, fields
FROM elements
WHERE element_type = $1 AND id = $2
`

	row := c.pool.QueryRow(ctx, query, typ, id)
	el, err := scanElement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting element: %w", err)
	}
	return el, nil
}

func (c *Client) ListElements(ctx context.Context, typ string) ([]element.Element, error) {
	query := `
SELECT id, name, description, supertype, subtype, image_url, world_id, fields
FROM elements
WHERE element_type = $1
ORDER BY lower(name)
`

	rows, err := c.pool.Query(ctx, query, typ)
	if err != nil {
		return nil, fmt.Errorf("listing elements: %w", err)
	}
	defer rows.Close()

	var elements []element.Element
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning element: %w", err)
		}
		elements = append(elements, *el)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating element rows: %w", err)
	}
	return elements, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]store.Summary, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	stmt := `
SELECT id, element_type, name, supertype, subtype
FROM elements
WHERE lower(name) LIKE $1 OR lower(description) LIKE $1
ORDER BY lower(name)
LIMIT 100
`

	rows, err := c.pool.Query(ctx, stmt, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching elements: %w", err)
	}
	defer rows.Close()

	var results []store.Summary
	for rows.Next() {
		var s store.Summary
		if err := rows.Scan(&s.ID, &s.ElementType, &s.Name, &s.Supertype, &s.Subtype); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}
	return results, nil
}

func (c *Client) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := c.pool.Query(ctx, `SELECT element_type, COUNT(*) FROM elements GROUP BY element_type`)
	if err != nil {
		return nil, fmt.Errorf("counting elements: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating count rows: %w", err)
	}
	return counts, nil
}

func (c *Client) PruneMissing(ctx context.Context, typ string, keep []string) (int64, error) {
	if len(keep) == 0 {
		tag, err := c.pool.Exec(ctx, `DELETE FROM elements WHERE element_type = $1`, typ)
		if err != nil {
			return 0, fmt.Errorf("pruning elements: %w", err)
		}
		return tag.RowsAffected(), nil
	}

	tag, err := c.pool.Exec(ctx,
		`DELETE FROM elements WHERE element_type = $1 AND NOT (id = ANY($2))`,
		typ, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning elements: %w", err)
	}
	return tag.RowsAffected(), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanElement(row scanner) (*element.Element, error) {
	var el element.Element
	var fieldsJSON []byte
	err := row.Scan(
		&el.ID,
		&el.Name,
		&el.Description,
		&el.Supertype,
		&el.Subtype,
		&el.ImageURL,
		&el.World,
		&fieldsJSON,
	)
	if err != nil {
		return nil, err
	}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &el.Fields); err != nil {
			return nil, fmt.Errorf("unmarshaling fields: %w", err)
		}
	}
	return &el, nil
}
