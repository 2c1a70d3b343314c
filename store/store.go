/*
Package store keeps previously converted decals in a sqlite database so that
converting the same source image again with the same options is free.

Decals are keyed by the SHA-1 of the source file and the conversion options.
*/
package store

import (
	"crypto/sha1"
	"database/sql"
	"fmt"
	"io"

	"github.com/nm004/img2tempdecal"

	_ "github.com/mattn/go-sqlite3"
)

// Store is an open decal database
type Store struct {
	db *sql.DB
}

// Open opens or creates the database in file
func Open(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS decal (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, large INTEGER NOT NULL, point INTEGER NOT NULL, dither INTEGER NOT NULL, wad BLOB NOT NULL, UNIQUE(sha1, large, point, dither))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db: db,
	}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Sum returns the key for the source image read from r
func Sum(r io.Reader) (string, error) {
	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

// Find returns the decal converted from the source image with the given SHA-1
// and options, or nil if there isn't one
func (s *Store) Find(sha string, opts img2tempdecal.Options) ([]byte, error) {
	var b []byte
	switch err := s.db.QueryRow("SELECT wad FROM decal WHERE sha1 = ? AND large = ? AND point = ? AND dither = ?", sha, opts.AllowLargerOutputSize, opts.UsePointResample, opts.UseDithering).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return b, nil
	default:
		return nil, err
	}
}

// Put stores a decal, replacing any existing one for the same key
func (s *Store) Put(sha string, opts img2tempdecal.Options, wad []byte) error {
	if _, err := s.db.Exec("INSERT OR REPLACE INTO decal (sha1, large, point, dither, wad) VALUES (?, ?, ?, ?, ?)", sha, opts.AllowLargerOutputSize, opts.UsePointResample, opts.UseDithering, wad); err != nil {
		return err
	}
	return nil
}
