package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/partnermap/internal/models"
)

// Run is one stored build.
type Run struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Summary   models.Summary `json:"summary"`
}

// Catalog keeps the latest build in SQLite, together with a history of runs.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewCatalog(dbPath string) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		carriers INTEGER NOT NULL,
		routes INTEGER NOT NULL,
		locations INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS routes (
		route_id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		carrier TEXT NOT NULL,
		color TEXT NOT NULL,
		route_name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_routes_carrier ON routes(carrier);

	CREATE TABLE IF NOT EXISTS route_points (
		route_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (route_id, seq),
		FOREIGN KEY (route_id) REFERENCES routes(route_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_route_points_name ON route_points(name);

	CREATE TABLE IF NOT EXISTS locations (
		name TEXT PRIMARY KEY,
		country TEXT NOT NULL,
		lat REAL,
		lon REAL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Replace swaps the stored routes and locations for res in one transaction and
// records a new run. It returns the run id.
func (c *Catalog) Replace(ctx context.Context, res *models.Result) (string, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	for _, table := range []string{"route_points", "routes", "locations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return "", fmt.Errorf("clear %s: %w", table, err)
		}
	}

	routeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO routes (route_id, position, carrier, color, route_name) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer routeStmt.Close()
	pointStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO route_points (route_id, seq, name) VALUES (?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer pointStmt.Close()
	locStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO locations (name, country, lat, lon) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer locStmt.Close()

	for i, r := range res.Routes {
		if _, err := routeStmt.ExecContext(ctx, r.RouteID, i, r.Carrier, r.Color, r.RouteName); err != nil {
			return "", fmt.Errorf("insert route %s: %w", r.RouteID, err)
		}
		for seq, p := range r.Points {
			if _, err := pointStmt.ExecContext(ctx, r.RouteID, seq, p); err != nil {
				return "", fmt.Errorf("insert point of %s: %w", r.RouteID, err)
			}
		}
	}
	for _, l := range res.Locations {
		if _, err := locStmt.ExecContext(ctx, l.Name, l.Country, nullFloat(l.Lat), nullFloat(l.Lon)); err != nil {
			return "", fmt.Errorf("insert location %s: %w", l.Name, err)
		}
	}

	s := res.Summarize()
	runID := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, carriers, routes, locations) VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), s.Carriers, s.Routes, s.Locations,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// Routes returns the stored routes in emission order.
func (c *Catalog) Routes(ctx context.Context) ([]models.Route, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT route_id, carrier, color, route_name FROM routes ORDER BY position`)
	if err != nil {
		return nil, err
	}
	var routes []models.Route
	index := make(map[string]int)
	for rows.Next() {
		var r models.Route
		if err := rows.Scan(&r.RouteID, &r.Carrier, &r.Color, &r.RouteName); err != nil {
			rows.Close()
			return nil, err
		}
		index[r.RouteID] = len(routes)
		routes = append(routes, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pts, err := c.db.QueryContext(ctx, `SELECT route_id, name FROM route_points ORDER BY route_id, seq`)
	if err != nil {
		return nil, err
	}
	defer pts.Close()
	for pts.Next() {
		var id, name string
		if err := pts.Scan(&id, &name); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			routes[i].Points = append(routes[i].Points, name)
		}
	}
	return routes, pts.Err()
}

// RoutesThrough returns the ids of routes that pass through the named location, in emission order.
func (c *Catalog) RoutesThrough(ctx context.Context, name string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT DISTINCT r.route_id, r.position FROM routes r
		 JOIN route_points p ON p.route_id = r.route_id
		 WHERE p.name = ? ORDER BY r.position`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var (
			id  string
			pos int
		)
		if err := rows.Scan(&id, &pos); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Locations returns the stored locations sorted by name.
func (c *Catalog) Locations(ctx context.Context) ([]models.Location, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name, country, lat, lon FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var locs []models.Location
	for rows.Next() {
		var (
			l        models.Location
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&l.Name, &l.Country, &lat, &lon); err != nil {
			return nil, err
		}
		l.Lat = floatPtr(lat)
		l.Lon = floatPtr(lon)
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

// Matches reports whether the stored routes and locations equal those of res.
// Locations are compared by name, since the catalog returns them sorted.
func (c *Catalog) Matches(ctx context.Context, res *models.Result) (bool, error) {
	routes, err := c.Routes(ctx)
	if err != nil {
		return false, fmt.Errorf("read routes: %w", err)
	}
	if len(routes) != len(res.Routes) {
		return false, nil
	}
	for i := range routes {
		if !reflect.DeepEqual(routes[i], res.Routes[i]) {
			return false, nil
		}
	}

	locs, err := c.Locations(ctx)
	if err != nil {
		return false, fmt.Errorf("read locations: %w", err)
	}
	if len(locs) != len(res.Locations) {
		return false, nil
	}
	byName := make(map[string]models.Location, len(res.Locations))
	for _, l := range res.Locations {
		byName[l.Name] = l
	}
	for _, l := range locs {
		want, ok := byName[l.Name]
		if !ok || !reflect.DeepEqual(l, want) {
			return false, nil
		}
	}
	return true, nil
}

// LastRun returns the most recent run, or nil when nothing has been stored yet.
func (c *Catalog) LastRun(ctx context.Context) (*Run, error) {
	var r Run
	err := c.db.QueryRowContext(ctx,
		`SELECT id, created_at, carriers, routes, locations FROM runs ORDER BY created_at DESC LIMIT 1`,
	).Scan(&r.ID, &r.CreatedAt, &r.Summary.Carriers, &r.Summary.Routes, &r.Summary.Locations)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountRuns returns the number of stored runs.
func (c *Catalog) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
