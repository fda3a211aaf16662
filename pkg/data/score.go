package data

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	insertScore = `INSERT INTO score (image_hash, max_dimension, score) VALUES (?, ?, ?)
		ON CONFLICT(image_hash, max_dimension) DO UPDATE SET score = ?, created_at = CURRENT_TIMESTAMP
	`

	selectScore = `SELECT score FROM score WHERE image_hash = ? AND max_dimension = ?`

	countScores = `SELECT COUNT(*) FROM score`
)

// GetScore returns the cached score for the image hash and downscale setting.
func GetScore(db *sql.DB, hash string, maxDimension int) (float64, bool, error) {
	if db == nil {
		return 0, false, errDBNotInitialized
	}

	var score float64
	err := db.QueryRow(selectScore, hash, maxDimension).Scan(&score)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "failed to scan row")
	}

	return score, true, nil
}

// SaveScore inserts or replaces the cached score.
func SaveScore(db *sql.DB, hash string, maxDimension int, score float64) error {
	if db == nil {
		return errDBNotInitialized
	}

	if hash == "" {
		return errors.New("image hash is required")
	}

	stmt, err := db.Prepare(insertScore)
	if err != nil {
		return errors.Wrap(err, "failed to prepare score insert statement")
	}
	defer stmt.Close()

	if _, err = stmt.Exec(hash, maxDimension, score, score); err != nil {
		return errors.Wrap(err, "failed to insert score")
	}

	return nil
}

// CountScores returns the number of cached scores.
func CountScores(db *sql.DB) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	var count int64
	if err := db.QueryRow(countScores).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count scores")
	}
	return count, nil
}

// ScoreCache adapts the score table to a key/value cache. Keys have the
// form "<hash>:<max dimension>".
type ScoreCache struct {
	db *sql.DB
}

// NewScoreCache returns a cache backed by db.
func NewScoreCache(db *sql.DB) *ScoreCache {
	return &ScoreCache{db: db}
}

func (c *ScoreCache) Get(key string) (float64, bool, error) {
	hash, dim, err := parseKey(key)
	if err != nil {
		return 0, false, err
	}
	return GetScore(c.db, hash, dim)
}

func (c *ScoreCache) Put(key string, score float64) error {
	hash, dim, err := parseKey(key)
	if err != nil {
		return err
	}
	return SaveScore(c.db, hash, dim, score)
}

func parseKey(key string) (string, int, error) {
	hash, dim, ok := strings.Cut(key, ":")
	if !ok || hash == "" {
		return "", 0, errors.Errorf("invalid score key: %q", key)
	}
	n, err := strconv.Atoi(dim)
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid max dimension in score key: %q", key)
	}
	return hash, n, nil
}
