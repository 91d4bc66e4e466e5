package resources

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Resource categories.
const (
	CategoryCrisis = "crisis"
	CategoryCoping = "coping"
)

// Resource is one support resource shown to the user, e.g. a hotline or a
// self-help guide. The catalog is read-only reference content; conversation
// state never touches it.
type Resource struct {
	ID          int64
	Category    string
	Name        string
	Contact     string
	URL         string
	Description string
}

// Catalog is the SQLite-backed support-resource catalog. It is seeded with
// built-in entries on first open so the crisis alert always has something
// to offer.
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database and seeds the default
// entries.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open resources database: %w", err)
	}

	createTable := `
	CREATE TABLE IF NOT EXISTS resources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		name TEXT NOT NULL UNIQUE,
		contact TEXT,
		url TEXT,
		description TEXT
	);`

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create resources table: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.seed(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) seed() error {
	defaults := []Resource{
		{
			Category:    CategoryCrisis,
			Name:        "988 Suicide & Crisis Lifeline",
			Contact:     "Call or text 988",
			URL:         "https://988lifeline.org",
			Description: "Free, confidential support 24/7 for people in distress.",
		},
		{
			Category:    CategoryCrisis,
			Name:        "Crisis Text Line",
			Contact:     "Text HOME to 741741",
			URL:         "https://www.crisistextline.org",
			Description: "Text with a trained crisis counselor, any time.",
		},
		{
			Category:    CategoryCrisis,
			Name:        "International Association for Suicide Prevention",
			URL:         "https://www.iasp.info/resources/Crisis_Centres",
			Description: "Directory of crisis centres outside the United States.",
		},
		{
			Category:    CategoryCoping,
			Name:        "Campus counseling services",
			Description: "Most universities offer free, confidential counseling to enrolled students.",
		},
		{
			Category:    CategoryCoping,
			Name:        "Guided breathing exercise",
			URL:         "https://www.nhs.uk/mental-health/self-help/guides-tools-and-activities/breathing-exercises-for-stress",
			Description: "A five-minute breathing routine for acute stress.",
		},
	}

	for _, r := range defaults {
		_, err := c.db.Exec(
			"INSERT OR IGNORE INTO resources (category, name, contact, url, description) VALUES (?, ?, ?, ?, ?)",
			r.Category, r.Name, r.Contact, r.URL, r.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to seed resource %q: %w", r.Name, err)
		}
	}
	return nil
}

// ListByCategory returns resources in one category, stable by id.
func (c *Catalog) ListByCategory(ctx context.Context, category string) ([]Resource, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, category, name, contact, url, description FROM resources WHERE category = ? ORDER BY id",
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()
	return scanResources(rows)
}

// All returns every resource in the catalog, stable by id.
func (c *Catalog) All(ctx context.Context) ([]Resource, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, category, name, contact, url, description FROM resources ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()
	return scanResources(rows)
}

func scanResources(rows *sql.Rows) ([]Resource, error) {
	resources := []Resource{}
	for rows.Next() {
		var r Resource
		if err := rows.Scan(&r.ID, &r.Category, &r.Name, &r.Contact, &r.URL, &r.Description); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
