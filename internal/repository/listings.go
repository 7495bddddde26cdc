package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/estate-pipeline/internal/dto"
	"github.com/octobees/estate-pipeline/internal/entity"
)

// ListingsRepository describes persistence operations for scraped listings.
type ListingsRepository interface {
	BulkUpsert(ctx context.Context, listings []entity.Listing) (BulkUpsertResult, error)
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Listing, error)
	ListPage(ctx context.Context, offset, limit int) ([]entity.Listing, error)
	MarkDuplicate(ctx context.Context, id, canonicalID uuid.UUID, score float64) error
	ClearDuplicates(ctx context.Context) (int64, error)
}

// ErrListingNotFound is returned when no listing matches the lookup criteria.
var ErrListingNotFound = errors.New("listing not found")

// BulkUpsertResult summarises the number of rows inserted or updated.
type BulkUpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

// PGXListingsRepository implements ListingsRepository using pgx.
type PGXListingsRepository struct {
	pool pgxPool
}

// NewPGXListingsRepository wires a pgx backed repository.
func NewPGXListingsRepository(pool *pgxpool.Pool) *PGXListingsRepository {
	return &PGXListingsRepository{pool: pool}
}

const listingColumns = `
        id,
        title,
        price_amount,
        price_currency,
        price_original,
        location,
        area,
        rooms,
        url,
        source,
        description,
        similarity_score,
        duplicate_of,
        scraped_at,
        scraper_version,
        created_at,
        updated_at
`

const bulkUpsertListingSQL = `
        INSERT INTO listings (title, price_amount, price_currency, price_original, location, area, rooms, url, source, description, scraped_at, scraper_version, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
        ON CONFLICT (url, source) DO UPDATE SET
            title = EXCLUDED.title,
            price_amount = EXCLUDED.price_amount,
            price_currency = EXCLUDED.price_currency,
            price_original = EXCLUDED.price_original,
            location = EXCLUDED.location,
            area = EXCLUDED.area,
            rooms = EXCLUDED.rooms,
            description = EXCLUDED.description,
            scraped_at = COALESCE(EXCLUDED.scraped_at, listings.scraped_at),
            scraper_version = COALESCE(NULLIF(EXCLUDED.scraper_version, ''), listings.scraper_version),
            updated_at = NOW()
        RETURNING id, xmax = 0;
    `

// BulkUpsert persists a batch of listings with idempotent semantics, keyed by
// (url, source). Assigned identifiers are written back into the slice.
func (r *PGXListingsRepository) BulkUpsert(ctx context.Context, listings []entity.Listing) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(listings) == 0 {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start bulk upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range listings {
		listing := &listings[i]
		rows, err := tx.Query(ctx, bulkUpsertListingSQL,
			listing.Title,
			floatOrNil(listing.PriceAmount),
			emptyToNil(listing.PriceCurrency),
			emptyToNil(listing.PriceOriginal),
			emptyToNil(listing.Location),
			emptyToNil(listing.Area),
			emptyToNil(listing.Rooms),
			listing.URL,
			string(listing.Source),
			emptyToNil(listing.Description),
			listing.ScrapedAt,
			listing.ScraperVersion,
		)
		if err != nil {
			return result, fmt.Errorf("bulk upsert listing %q: %w", listing.URL, err)
		}

		var inserted bool
		if rows.Next() {
			if scanErr := rows.Scan(&listing.ID, &inserted); scanErr != nil {
				rows.Close()
				return result, fmt.Errorf("scan bulk upsert result: %w", scanErr)
			}
		} else {
			err := rows.Err()
			rows.Close()
			if err != nil {
				return result, fmt.Errorf("bulk upsert listing %q: %w", listing.URL, err)
			}
			return result, fmt.Errorf("bulk upsert listing %q: no result returned", listing.URL)
		}
		rows.Close()

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit bulk upsert tx: %w", err)
	}

	return result, nil
}

// List retrieves listings matching the provided filter, newest first.
func (r *PGXListingsRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.Listing, error) {
	baseQuery := strings.Builder{}
	baseQuery.WriteString("SELECT " + listingColumns + " FROM listings")

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR location ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}
	if filter.Source != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(source) = LOWER($%d)", idx))
		args = append(args, filter.Source)
		idx++
	}
	if filter.MinPrice != nil {
		clauses = append(clauses, fmt.Sprintf("price_amount >= $%d", idx))
		args = append(args, *filter.MinPrice)
		idx++
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, fmt.Sprintf("price_amount <= $%d", idx))
		args = append(args, *filter.MaxPrice)
		idx++
	}
	switch strings.ToLower(filter.Duplicates) {
	case "only":
		clauses = append(clauses, "duplicate_of IS NOT NULL")
	case "exclude":
		clauses = append(clauses, "duplicate_of IS NULL")
	}

	if len(clauses) > 0 {
		baseQuery.WriteString(" WHERE ")
		baseQuery.WriteString(strings.Join(clauses, " AND "))
	}

	orderClause := "updated_at DESC, url ASC"
	if strings.EqualFold(filter.Sort, "price") {
		orderClause = "price_amount ASC NULLS LAST, url ASC"
	}
	baseQuery.WriteString(" ORDER BY ")
	baseQuery.WriteString(orderClause)

	if filter.Limit > 0 {
		baseQuery.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	} else {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		perPage := filter.PerPage
		if perPage <= 0 {
			perPage = 20
		}
		if perPage > 100 {
			perPage = 100
		}
		offset := (page - 1) * perPage
		baseQuery.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
		args = append(args, perPage, offset)
	}

	rows, err := r.pool.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// ListPage reads one stable page of listings ordered by creation date. The
// deduplication pass walks the whole table through this method.
func (r *PGXListingsRepository) ListPage(ctx context.Context, offset, limit int) ([]entity.Listing, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+listingColumns+" FROM listings ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list listings page: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// MarkDuplicate records that a listing duplicates a canonical one along with
// the similarity score that triggered the match.
func (r *PGXListingsRepository) MarkDuplicate(ctx context.Context, id, canonicalID uuid.UUID, score float64) error {
	cmd, err := r.pool.Exec(ctx, `
        UPDATE listings
        SET duplicate_of = $2, similarity_score = $3, updated_at = NOW()
        WHERE id = $1
    `, id, canonicalID, score)
	if err != nil {
		return fmt.Errorf("mark duplicate: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrListingNotFound
	}
	return nil
}

// ClearDuplicates resets all duplicate marks so a deduplication pass starts
// from a clean slate. Returns the number of listings cleared.
func (r *PGXListingsRepository) ClearDuplicates(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `
        UPDATE listings
        SET duplicate_of = NULL, similarity_score = NULL, updated_at = NOW()
        WHERE duplicate_of IS NOT NULL OR similarity_score IS NOT NULL
    `)
	if err != nil {
		return 0, fmt.Errorf("clear duplicates: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func scanListings(rows pgx.Rows) ([]entity.Listing, error) {
	var listings []entity.Listing
	for rows.Next() {
		var (
			l           entity.Listing
			price       sql.NullFloat64
			currency    sql.NullString
			original    sql.NullString
			location    sql.NullString
			area        sql.NullString
			roomsText   sql.NullString
			source      string
			description sql.NullString
			score       sql.NullFloat64
			duplicateOf sql.NullString
			scrapedAt   sql.NullTime
			version     sql.NullString
		)

		err := rows.Scan(
			&l.ID,
			&l.Title,
			&price,
			&currency,
			&original,
			&location,
			&area,
			&roomsText,
			&l.URL,
			&source,
			&description,
			&score,
			&duplicateOf,
			&scrapedAt,
			&version,
			&l.CreatedAt,
			&l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}

		l.Source = entity.Source(source)
		if price.Valid {
			val := price.Float64
			l.PriceAmount = &val
		}
		l.PriceCurrency = nullStringValue(currency)
		l.PriceOriginal = nullStringValue(original)
		l.Location = nullStringValue(location)
		l.Area = nullStringValue(area)
		l.Rooms = nullStringValue(roomsText)
		l.Description = nullStringValue(description)
		l.ScraperVersion = nullStringValue(version)
		if score.Valid {
			val := score.Float64
			l.SimilarityScore = &val
		}
		if duplicateOf.Valid {
			parsed, err := uuid.Parse(duplicateOf.String)
			if err != nil {
				return nil, fmt.Errorf("parse duplicate_of: %w", err)
			}
			l.DuplicateOf = &parsed
		}
		if scrapedAt.Valid {
			ts := scrapedAt.Time
			l.ScrapedAt = &ts
		}

		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

func nullStringValue(value sql.NullString) string {
	if value.Valid {
		return value.String
	}
	return ""
}

func emptyToNil(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func floatOrNil(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
