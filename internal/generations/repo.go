package generations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"apexcarousel/pkg/models"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// sortColumns maps the public sort keys to ORDER BY clauses.
var sortColumns = map[string]string{
	"created":  "created_at ASC",
	"-created": "created_at DESC",
	"updated":  "updated_at ASC",
	"-updated": "updated_at DESC",
}

type ListQuery struct {
	Page    int
	PerPage int
	Style   models.Style
	Q       string
	Sort    string
}

type Page struct {
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	TotalItems int                 `json:"total_items"`
	TotalPages int                 `json:"total_pages"`
	Items      []models.Generation `json:"items"`
}

// Patch holds editable fields; nil means unchanged.
type Patch struct {
	InputText     *string                 `json:"input_text"`
	Style         *models.Style           `json:"style"`
	Slides        *[]models.CarouselSlide `json:"slides"`
	Caption       *string                 `json:"caption"`
	PinnedComment *string                 `json:"pinned_comment"`
	Hooks         *[]string               `json:"hooks"`
}

func (p Patch) Empty() bool {
	return p.InputText == nil && p.Style == nil && p.Slides == nil &&
		p.Caption == nil && p.PinnedComment == nil && p.Hooks == nil
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const genCols = `id, owner, input_text, style, slides, caption, pinned_comment, hooks, carousel_pdf, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(s scanner) (*models.Generation, error) {
	var g models.Generation
	var slides, hooks string
	if err := s.Scan(&g.ID, &g.Owner, &g.InputText, &g.Style, &slides, &g.Caption, &g.PinnedComment,
		&hooks, &g.CarouselPDF, &g.Created, &g.Updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(slides), &g.Slides); err != nil {
		return nil, fmt.Errorf("decode slides for %s: %w", g.ID, err)
	}
	if err := json.Unmarshal([]byte(hooks), &g.Hooks); err != nil {
		return nil, fmt.Errorf("decode hooks for %s: %w", g.ID, err)
	}
	return &g, nil
}

func encodeList(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

// ErrLimitReached is returned by Create when the owner already has limit generations.
var ErrLimitReached = errors.New("generation limit reached")

// Unlimited disables the per-owner cap in Create.
const Unlimited = -1

// Create inserts g unless its owner already has limit or more generations.
// The count and the insert are one statement, so concurrent creates cannot
// overshoot the limit.
func (r *Repo) Create(ctx context.Context, g *models.Generation, limit int) error {
	slides, err := encodeList(g.Slides)
	if err != nil {
		return fmt.Errorf("encode slides: %w", err)
	}
	hooks, err := encodeList(g.Hooks)
	if err != nil {
		return fmt.Errorf("encode hooks: %w", err)
	}

	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO generations (`+genCols+`)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE ? < 0 OR (SELECT COUNT(*) FROM generations WHERE owner = ?) < ?
	`, g.ID, g.Owner, g.InputText, g.Style, slides, g.Caption, g.PinnedComment, hooks, g.CarouselPDF, now, now,
		limit, g.Owner, limit)
	if err != nil {
		return fmt.Errorf("create generation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create generation: %w", err)
	}
	if n == 0 {
		return ErrLimitReached
	}
	g.Created, g.Updated = now, now
	return nil
}

// Get returns nil, nil when the generation does not exist or belongs to someone else.
func (r *Repo) Get(ctx context.Context, id, owner string) (*models.Generation, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+genCols+` FROM generations WHERE id = ? AND owner = ?`, id, owner)
	g, err := scanGeneration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get generation: %w", err)
	}
	return g, nil
}

func (r *Repo) List(ctx context.Context, owner string, q ListQuery) (*Page, error) {
	q = normalize(q)

	where := []string{"owner = ?"}
	args := []any{owner}
	if q.Style != "" {
		where = append(where, "style = ?")
		args = append(args, q.Style)
	}
	if q.Q != "" {
		like := "%" + escapeLike(q.Q) + "%"
		where = append(where, `(input_text LIKE ? ESCAPE '\' OR caption LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count generations: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+genCols+`
		FROM generations
		WHERE `+cond+`
		ORDER BY `+sortColumns[q.Sort]+`, id ASC
		LIMIT ? OFFSET ?
	`, append(args, q.PerPage, (q.Page-1)*q.PerPage)...)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	items := []models.Generation{}
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		items = append(items, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list generations rows: %w", err)
	}

	return &Page{
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalItems: total,
		TotalPages: (total + q.PerPage - 1) / q.PerPage,
		Items:      items,
	}, nil
}

// Update applies p and returns the stored result, or nil when not found.
func (r *Repo) Update(ctx context.Context, id, owner string, p Patch) (*models.Generation, error) {
	var slides, hooks *string
	if p.Slides != nil {
		s, err := encodeList(*p.Slides)
		if err != nil {
			return nil, fmt.Errorf("encode slides: %w", err)
		}
		slides = &s
	}
	if p.Hooks != nil {
		s, err := encodeList(*p.Hooks)
		if err != nil {
			return nil, fmt.Errorf("encode hooks: %w", err)
		}
		hooks = &s
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE generations SET
		  input_text = COALESCE(?, input_text),
		  style = COALESCE(?, style),
		  slides = COALESCE(?, slides),
		  caption = COALESCE(?, caption),
		  pinned_comment = COALESCE(?, pinned_comment),
		  hooks = COALESCE(?, hooks),
		  updated_at = ?
		WHERE id = ? AND owner = ?
	`, p.InputText, p.Style, slides, p.Caption, p.PinnedComment, hooks, time.Now().UTC(), id, owner)
	if err != nil {
		return nil, fmt.Errorf("update generation: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update generation rows: %w", err)
	} else if n == 0 {
		return nil, nil
	}
	return r.Get(ctx, id, owner)
}

// SetPDF records the stored PDF key and returns the one it replaced.
func (r *Repo) SetPDF(ctx context.Context, id, owner, key string) (string, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("begin set pdf: %w", err)
	}
	defer tx.Rollback()

	var old string
	err = tx.QueryRowContext(ctx, `SELECT carousel_pdf FROM generations WHERE id = ? AND owner = ?`, id, owner).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read pdf: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE generations SET carousel_pdf = ?, updated_at = ? WHERE id = ?`,
		key, time.Now().UTC(), id); err != nil {
		return "", false, fmt.Errorf("set pdf: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("commit set pdf: %w", err)
	}
	return old, true, nil
}

// Delete removes the generation and returns what was deleted, or nil when not found.
func (r *Repo) Delete(ctx context.Context, id, owner string) (*models.Generation, error) {
	g, err := r.Get(ctx, id, owner)
	if err != nil || g == nil {
		return nil, err
	}
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM generations WHERE id = ? AND owner = ?`, id, owner); err != nil {
		return nil, fmt.Errorf("delete generation: %w", err)
	}
	return g, nil
}

// Each streams every stored generation, oldest first.
func (r *Repo) Each(ctx context.Context, fn func(models.Generation) error) error {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+genCols+` FROM generations ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return fmt.Errorf("scan generation: %w", err)
		}
		if err := fn(*g); err != nil {
			return err
		}
	}
	return rows.Err()
}

func normalize(q ListQuery) ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	if _, ok := sortColumns[q.Sort]; !ok {
		q.Sort = "-created"
	}
	q.Q = strings.TrimSpace(q.Q)
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
