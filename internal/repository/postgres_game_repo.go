package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/pushluck/internal/model"
)

// PostgresGameRepo はPostgreSQLを使用したゲームリポジトリ。
type PostgresGameRepo struct {
	db *sql.DB
}

// NewPostgresGameRepo はPostgresGameRepoを生成する。
func NewPostgresGameRepo(db *sql.DB) *PostgresGameRepo {
	return &PostgresGameRepo{db: db}
}

// FindByID は指定IDのゲームを取得する。見つからない場合はnilを返す。
func (r *PostgresGameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	game := &model.Game{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, attempts, game_over, created_at, updated_at
		 FROM games WHERE id = $1`,
		id,
	).Scan(&game.ID, &game.UserID, &game.Attempts, &game.GameOver,
		&game.CreatedAt, &game.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find game by ID: %w", err)
	}

	return game, nil
}

// Create はゲームを作成する。
func (r *PostgresGameRepo) Create(ctx context.Context, game *model.Game) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO games (id, user_id, attempts, game_over, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		game.ID, game.UserID, game.Attempts, game.GameOver,
		game.CreatedAt, game.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのゲームを物理削除する。履歴はCASCADE削除される。
func (r *PostgresGameRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM games WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGameNotFound
	}
	return nil
}

// ApplyPush はプッシュによる全変更を1つのトランザクションで適用する。
//
// ゲーム行をFOR UPDATEでロックして同一ゲームへの同時プッシュを直列化し、
// ロック取得後にgame_overとattemptsを再確認する。判定の前提としたattemptsが
// 既に変化していた場合は何も適用せずErrPushConflictを返す。
func (r *PostgresGameRepo) ApplyPush(ctx context.Context, params ApplyPushParams) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ゲーム行をロックして現在値を再確認
	var attempts int
	var gameOver bool
	err = tx.QueryRowContext(ctx,
		`SELECT attempts, game_over FROM games WHERE id = $1 FOR UPDATE`,
		params.GameID,
	).Scan(&attempts, &gameOver)
	if err == sql.ErrNoRows {
		return ErrGameNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock game row: %w", err)
	}
	if gameOver {
		return ErrGameAlreadyOver
	}
	if attempts != params.ExpectedAttempts {
		return ErrPushConflict
	}

	// 履歴を追記
	_, err = tx.ExecContext(ctx,
		`INSERT INTO game_pushes (game_id, pushed_at) VALUES ($1, $2)`,
		params.GameID, params.PushedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert push history: %w", err)
	}

	// ゲーム状態を更新
	_, err = tx.ExecContext(ctx,
		`UPDATE games SET attempts = $1, game_over = $2, updated_at = $3 WHERE id = $4`,
		params.NewAttempts, params.GameOver, params.PushedAt, params.GameID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	// クールダウン判定用のタイムスタンプを更新
	_, err = tx.ExecContext(ctx,
		`UPDATE users SET last_push_at = $1, updated_at = $1 WHERE id = $2`,
		params.PushedAt, params.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last push: %w", err)
	}

	// スコア台帳を更新。バスト時は日付もリセットする。
	if params.GameOver {
		_, err = tx.ExecContext(ctx,
			`UPDATE scores SET attempts = $1, score_date = $2 WHERE user_id = $3`,
			params.ScoreAttempts, params.ScoreDate, params.UserID,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE scores SET attempts = $1 WHERE user_id = $2`,
			params.ScoreAttempts, params.UserID,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListHistory はゲームのプッシュ履歴を時系列順で返す。
func (r *PostgresGameRepo) ListHistory(ctx context.Context, gameID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT pushed_at FROM game_pushes WHERE game_id = $1 ORDER BY id ASC`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list push history: %w", err)
	}
	defer rows.Close()

	var history []time.Time
	for rows.Next() {
		var pushedAt time.Time
		if err := rows.Scan(&pushedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push history: %w", err)
		}
		history = append(history, pushedAt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate push history: %w", err)
	}

	return history, nil
}

// ListActiveByUserID は指定ユーザーの未終了ゲームを作成順で返す。
func (r *PostgresGameRepo) ListActiveByUserID(ctx context.Context, userID string) ([]GameWithUser, error) {
	return r.listWithUser(ctx,
		`SELECT g.id, g.user_id, g.attempts, g.game_over, g.created_at, g.updated_at, u.name
		 FROM games g JOIN users u ON u.id = g.user_id
		 WHERE g.user_id = $1 AND g.game_over = false
		 ORDER BY g.created_at ASC`,
		userID,
	)
}

// ListFinishedByAttempts は終了済みゲームをattempts降順で返す。
// limitが0以下の場合は全件を返す。
func (r *PostgresGameRepo) ListFinishedByAttempts(ctx context.Context, limit int) ([]GameWithUser, error) {
	query := `SELECT g.id, g.user_id, g.attempts, g.game_over, g.created_at, g.updated_at, u.name
		 FROM games g JOIN users u ON u.id = g.user_id
		 WHERE g.game_over = true
		 ORDER BY g.attempts DESC, g.updated_at ASC`

	if limit > 0 {
		return r.listWithUser(ctx, query+` LIMIT $1`, limit)
	}
	return r.listWithUser(ctx, query)
}

func (r *PostgresGameRepo) listWithUser(ctx context.Context, query string, args ...any) ([]GameWithUser, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []GameWithUser
	for rows.Next() {
		var g GameWithUser
		if err := rows.Scan(&g.ID, &g.UserID, &g.Attempts, &g.GameOver,
			&g.CreatedAt, &g.UpdatedAt, &g.UserName); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}

	return games, nil
}

// FinishedStats は終了済みゲームの件数とattemptsの合計を返す。
func (r *PostgresGameRepo) FinishedStats(ctx context.Context) (int, int, error) {
	var count, total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(attempts), 0) FROM games WHERE game_over = true`,
	).Scan(&count, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query finished stats: %w", err)
	}
	return count, total, nil
}

// ListActiveWithOwnerEmail はメールアドレス登録済みユーザーの未終了ゲームを返す。
func (r *PostgresGameRepo) ListActiveWithOwnerEmail(ctx context.Context) ([]ReminderTarget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, u.name, u.email
		 FROM games g JOIN users u ON u.id = g.user_id
		 WHERE g.game_over = false AND u.email IS NOT NULL
		 ORDER BY g.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder targets: %w", err)
	}
	defer rows.Close()

	var targets []ReminderTarget
	for rows.Next() {
		var t ReminderTarget
		if err := rows.Scan(&t.GameID, &t.UserName, &t.Email); err != nil {
			return nil, fmt.Errorf("failed to scan reminder target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminder targets: %w", err)
	}

	return targets, nil
}

// compile-time interface check
var _ GameRepository = (*PostgresGameRepo)(nil)
