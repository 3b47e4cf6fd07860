package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/pushluck/internal/model"
)

// PostgresScoreRepo はPostgreSQLを使用したスコア台帳リポジトリ。
type PostgresScoreRepo struct {
	db *sql.DB
}

// NewPostgresScoreRepo はPostgresScoreRepoを生成する。
func NewPostgresScoreRepo(db *sql.DB) *PostgresScoreRepo {
	return &PostgresScoreRepo{db: db}
}

// FindByUserID は指定ユーザーの台帳を取得する。見つからない場合はnilを返す。
func (r *PostgresScoreRepo) FindByUserID(ctx context.Context, userID string) (*model.Score, error) {
	score := &model.Score{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, attempts, score_date FROM scores WHERE user_id = $1`,
		userID,
	).Scan(&score.UserID, &score.Attempts, &score.ScoreDate)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find score: %w", err)
	}

	return score, nil
}

// ListByAttemptsDesc は全ユーザーの台帳をattempts降順で返す。ランキング用。
func (r *PostgresScoreRepo) ListByAttemptsDesc(ctx context.Context) ([]ScoreWithUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.user_id, s.attempts, s.score_date, u.name
		 FROM scores s JOIN users u ON u.id = s.user_id
		 ORDER BY s.attempts DESC, u.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []ScoreWithUser
	for rows.Next() {
		var s ScoreWithUser
		if err := rows.Scan(&s.UserID, &s.Attempts, &s.ScoreDate, &s.UserName); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %w", err)
	}

	return scores, nil
}

// compile-time interface check
var _ ScoreRepository = (*PostgresScoreRepo)(nil)
