// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

var schema = []string{
	`CREATE TABLE works (
		paper_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		doi TEXT,
		year INTEGER,
		citations INTEGER,
		abstract TEXT,
		publisher TEXT,
		topics TEXT NOT NULL,
		source TEXT,
		source_ref TEXT,
		stub INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE authors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		institutions TEXT NOT NULL,
		source TEXT
	)`,
	`CREATE TABLE writes_work (
		author_id TEXT NOT NULL REFERENCES authors(id),
		paper_id TEXT NOT NULL REFERENCES works(paper_id),
		PRIMARY KEY (author_id, paper_id)
	)`,
	`CREATE TABLE citations (
		from_id TEXT NOT NULL REFERENCES works(paper_id),
		to_id TEXT NOT NULL REFERENCES works(paper_id),
		PRIMARY KEY (from_id, to_id)
	)`,
	`CREATE TABLE related_work (
		from_id TEXT NOT NULL REFERENCES works(paper_id),
		to_id TEXT NOT NULL REFERENCES works(paper_id),
		PRIMARY KEY (from_id, to_id)
	)`,
	`CREATE INDEX idx_citations_to ON citations(to_id)`,
	`CREATE INDEX idx_writes_work_paper ON writes_work(paper_id)`,
}

// writeSQLite builds the database in a temporary file next to path and
// renames it into place once committed.
func writeSQLite(ctx context.Context, path string, ds types.Dataset) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary database: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	db, err := sql.Open("sqlite3", tmpPath+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := fillSQLite(ctx, db, ds); err != nil {
		db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	return nil
}

func fillSQLite(ctx context.Context, db *sql.DB, ds types.Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	insertWork, err := tx.PrepareContext(ctx, `INSERT INTO works
		(paper_id, title, doi, year, citations, abstract, publisher, topics, source, source_ref, stub)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing works insert: %w", err)
	}
	defer insertWork.Close()
	for _, p := range ds.Works {
		topics, err := json.Marshal(nonNil(p.Topics))
		if err != nil {
			return fmt.Errorf("encoding topics of %s: %w", p.ID, err)
		}
		if _, err := insertWork.ExecContext(ctx, p.ID, p.Title, p.DOI, p.Year, p.Citations,
			p.Abstract, p.Publisher, string(topics), p.Source, p.SourceRef, p.Stub); err != nil {
			return fmt.Errorf("inserting work %s: %w", p.ID, err)
		}
	}

	insertAuthor, err := tx.PrepareContext(ctx, `INSERT INTO authors (id, name, institutions, source) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing authors insert: %w", err)
	}
	defer insertAuthor.Close()
	for _, a := range ds.Authors {
		inst, err := json.Marshal(nonNil(a.Institutions))
		if err != nil {
			return fmt.Errorf("encoding institutions of %s: %w", a.ID, err)
		}
		if _, err := insertAuthor.ExecContext(ctx, a.ID, a.Name, string(inst), a.Source); err != nil {
			return fmt.Errorf("inserting author %s: %w", a.ID, err)
		}
	}

	for _, w := range ds.WritesWork {
		if _, err := tx.ExecContext(ctx, `INSERT INTO writes_work (author_id, paper_id) VALUES (?, ?)`,
			w.AuthorID, w.PaperID); err != nil {
			return fmt.Errorf("inserting authorship %s -> %s: %w", w.AuthorID, w.PaperID, err)
		}
	}
	for table, rels := range map[string][]types.Relation{"citations": ds.Citations, "related_work": ds.RelatedWork} {
		for _, r := range rels {
			if _, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (from_id, to_id) VALUES (?, ?)`,
				r.From, r.To); err != nil {
				return fmt.Errorf("inserting %s %s -> %s: %w", table, r.From, r.To, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// readSQLite loads a database written by writeSQLite. Rows come back in
// insertion order.
func readSQLite(ctx context.Context, path string) (types.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return types.Dataset{}, fmt.Errorf("reading %s: %w", path, err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return types.Dataset{}, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ds := types.Dataset{
		Works:       []types.Paper{},
		Authors:     []types.Author{},
		WritesWork:  []types.Authorship{},
		Citations:   []types.Relation{},
		RelatedWork: []types.Relation{},
	}

	rows, err := db.QueryContext(ctx, `SELECT paper_id, title, doi, year, citations, abstract, publisher,
		topics, source, source_ref, stub FROM works ORDER BY rowid`)
	if err != nil {
		return types.Dataset{}, fmt.Errorf("querying works: %w", err)
	}
	for rows.Next() {
		var p types.Paper
		var doi, abstract, publisher, topics, source, sourceRef sql.NullString
		var year, citations sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Title, &doi, &year, &citations, &abstract, &publisher,
			&topics, &source, &sourceRef, &p.Stub); err != nil {
			rows.Close()
			return types.Dataset{}, fmt.Errorf("scanning work: %w", err)
		}
		p.DOI = nullString(doi)
		p.Abstract = nullString(abstract)
		p.Publisher = nullString(publisher)
		p.Year = nullInt(year)
		p.Citations = nullInt(citations)
		p.Source = source.String
		p.SourceRef = sourceRef.String
		if err := json.Unmarshal([]byte(topics.String), &p.Topics); err != nil {
			rows.Close()
			return types.Dataset{}, fmt.Errorf("decoding topics of %s: %w", p.ID, err)
		}
		ds.Works = append(ds.Works, p)
	}
	if err := closeRows(rows); err != nil {
		return types.Dataset{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT id, name, institutions, source FROM authors ORDER BY rowid`)
	if err != nil {
		return types.Dataset{}, fmt.Errorf("querying authors: %w", err)
	}
	for rows.Next() {
		var (
			a            types.Author
			inst, source string
		)
		if err := rows.Scan(&a.ID, &a.Name, &inst, &source); err != nil {
			rows.Close()
			return types.Dataset{}, fmt.Errorf("scanning author: %w", err)
		}
		a.Source = source
		if err := json.Unmarshal([]byte(inst), &a.Institutions); err != nil {
			rows.Close()
			return types.Dataset{}, fmt.Errorf("decoding institutions of %s: %w", a.ID, err)
		}
		ds.Authors = append(ds.Authors, a)
	}
	if err := closeRows(rows); err != nil {
		return types.Dataset{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT author_id, paper_id FROM writes_work ORDER BY rowid`)
	if err != nil {
		return types.Dataset{}, fmt.Errorf("querying writes_work: %w", err)
	}
	for rows.Next() {
		var w types.Authorship
		if err := rows.Scan(&w.AuthorID, &w.PaperID); err != nil {
			rows.Close()
			return types.Dataset{}, fmt.Errorf("scanning authorship: %w", err)
		}
		ds.WritesWork = append(ds.WritesWork, w)
	}
	if err := closeRows(rows); err != nil {
		return types.Dataset{}, err
	}

	if ds.Citations, err = readRelations(ctx, db, "citations"); err != nil {
		return types.Dataset{}, err
	}
	if ds.RelatedWork, err = readRelations(ctx, db, "related_work"); err != nil {
		return types.Dataset{}, err
	}
	return ds, nil
}

func readRelations(ctx context.Context, db *sql.DB, table string) ([]types.Relation, error) {
	rows, err := db.QueryContext(ctx, `SELECT from_id, to_id FROM `+table+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	rels := []types.Relation{}
	for rows.Next() {
		var r types.Relation
		if err := rows.Scan(&r.From, &r.To); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		rels = append(rels, r)
	}
	return rels, closeRows(rows)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating rows: %w", err)
	}
	return rows.Close()
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
