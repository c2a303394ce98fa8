package guides

import (
	"database/sql"
	"encoding/json"
	"time"

	"stayguide-backend/blocks"
)

// Store is the persistence surface handlers depend on; Repository implements
// it over MySQL and tests substitute an in-memory fake.
type Store interface {
	GetByID(id string) (*Guide, error)
	GetBySlug(slug string) (*Guide, error)
	CountByOwner(ownerID int) (int, error)
	Create(g *Guide) error
	Update(g *Guide) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const guideColumns = `id, slug, owner_id, title, theme_id, blocks, published, city_hint, manual_text, created_at, updated_at`

func (r *Repository) scanGuide(row *sql.Row) (*Guide, error) {
	var g Guide
	var blocksJSON []byte
	var published int
	if err := row.Scan(&g.ID, &g.Slug, &g.OwnerID, &g.Title, &g.Theme.ThemeID, &blocksJSON, &published, &g.CityHint, &g.ManualText, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	g.Published = published != 0
	if len(blocksJSON) > 0 {
		// The column is opaque to the database; decode errors would mean a
		// corrupted row, surfaced to the caller.
		if err := json.Unmarshal(blocksJSON, &g.Blocks); err != nil {
			return nil, err
		}
	}
	if g.Blocks == nil {
		g.Blocks = []blocks.Block{}
	}
	return &g, nil
}

func (r *Repository) GetByID(id string) (*Guide, error) {
	row := r.db.QueryRow(`SELECT `+guideColumns+` FROM guides WHERE id=? LIMIT 1`, id)
	return r.scanGuide(row)
}

func (r *Repository) GetBySlug(slug string) (*Guide, error) {
	row := r.db.QueryRow(`SELECT `+guideColumns+` FROM guides WHERE slug=? LIMIT 1`, slug)
	return r.scanGuide(row)
}

func (r *Repository) CountByOwner(ownerID int) (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM guides WHERE owner_id=?`, ownerID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repository) Create(g *Guide) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	blocksJSON, err := json.Marshal(g.Blocks)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO guides (id, slug, owner_id, title, theme_id, blocks, published, city_hint, manual_text, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		g.ID, g.Slug, g.OwnerID, g.Title, g.Theme.ThemeID, blocksJSON, boolToInt(g.Published), g.CityHint, g.ManualText, g.CreatedAt, g.UpdatedAt)
	return err
}

func (r *Repository) Update(g *Guide) error {
	g.UpdatedAt = time.Now()
	blocksJSON, err := json.Marshal(g.Blocks)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`UPDATE guides SET slug=?, title=?, theme_id=?, blocks=?, published=?, city_hint=?, manual_text=?, updated_at=? WHERE id=?`,
		g.Slug, g.Title, g.Theme.ThemeID, blocksJSON, boolToInt(g.Published), g.CityHint, g.ManualText, g.UpdatedAt, g.ID)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
