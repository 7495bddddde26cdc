package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/estate-pipeline/internal/dto"
	"github.com/octobees/estate-pipeline/internal/entity"
)

// AddressesRepository describes persistence operations for structured
// addresses. Each listing owns at most one address row.
type AddressesRepository interface {
	UpsertForListing(ctx context.Context, address *entity.StructuredAddress) error
	List(ctx context.Context, filter dto.AddressFilter) ([]entity.StructuredAddress, error)
	ListMissingCoordinates(ctx context.Context, limit int) ([]entity.StructuredAddress, error)
	SetCoordinates(ctx context.Context, id uuid.UUID, lat, lon float64) error
}

// PGXAddressesRepository implements AddressesRepository using pgx.
type PGXAddressesRepository struct {
	pool pgxPool
}

// NewPGXAddressesRepository wires a pgx backed repository.
func NewPGXAddressesRepository(pool *pgxpool.Pool) *PGXAddressesRepository {
	return &PGXAddressesRepository{pool: pool}
}

const addressColumns = `
        id,
        listing_id,
        full_address,
        street_name,
        district,
        sub_district,
        city,
        province,
        latitude,
        longitude,
        created_at,
        updated_at
`

// UpsertForListing inserts or refreshes the decomposed address of a listing.
// Re-parsing never discards coordinates that were already resolved.
func (r *PGXAddressesRepository) UpsertForListing(ctx context.Context, address *entity.StructuredAddress) error {
	if address == nil {
		return fmt.Errorf("address payload is nil")
	}

	query := `
        INSERT INTO structured_addresses (
            listing_id,
            full_address,
            street_name,
            district,
            sub_district,
            city,
            province,
            updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (listing_id) DO UPDATE SET
            full_address = EXCLUDED.full_address,
            street_name = EXCLUDED.street_name,
            district = EXCLUDED.district,
            sub_district = EXCLUDED.sub_district,
            city = EXCLUDED.city,
            province = EXCLUDED.province,
            updated_at = NOW()
        RETURNING id;
    `

	err := r.pool.QueryRow(ctx, query,
		address.ListingID,
		address.FullAddress,
		emptyToNil(address.StreetName),
		emptyToNil(address.District),
		emptyToNil(address.SubDistrict),
		emptyToNil(address.City),
		emptyToNil(address.Province),
	).Scan(&address.ID)
	if err != nil {
		return fmt.Errorf("upsert address: %w", err)
	}

	return nil
}

// List retrieves structured addresses matching the provided filter.
func (r *PGXAddressesRepository) List(ctx context.Context, filter dto.AddressFilter) ([]entity.StructuredAddress, error) {
	baseQuery := strings.Builder{}
	baseQuery.WriteString("SELECT " + addressColumns + " FROM structured_addresses")

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.MissingCoords {
		clauses = append(clauses, "(latitude IS NULL OR longitude IS NULL)")
	}

	if len(clauses) > 0 {
		baseQuery.WriteString(" WHERE ")
		baseQuery.WriteString(strings.Join(clauses, " AND "))
	}

	baseQuery.WriteString(" ORDER BY created_at ASC, id ASC")

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

	rows, err := r.pool.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	return scanAddresses(rows)
}

// ListMissingCoordinates returns addresses still waiting for geocoding,
// oldest first so retried rows do not starve new ones.
func (r *PGXAddressesRepository) ListMissingCoordinates(ctx context.Context, limit int) ([]entity.StructuredAddress, error) {
	query := "SELECT " + addressColumns + ` FROM structured_addresses
        WHERE latitude IS NULL OR longitude IS NULL
        ORDER BY created_at ASC, id ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list addresses missing coordinates: %w", err)
	}
	defer rows.Close()

	return scanAddresses(rows)
}

// SetCoordinates stores a resolved coordinate pair.
func (r *PGXAddressesRepository) SetCoordinates(ctx context.Context, id uuid.UUID, lat, lon float64) error {
	cmd, err := r.pool.Exec(ctx, `
        UPDATE structured_addresses
        SET latitude = $2, longitude = $3, updated_at = NOW()
        WHERE id = $1
    `, id, lat, lon)
	if err != nil {
		return fmt.Errorf("set coordinates: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("set coordinates: address %s not found", id)
	}
	return nil
}

func scanAddresses(rows pgx.Rows) ([]entity.StructuredAddress, error) {
	var addresses []entity.StructuredAddress
	for rows.Next() {
		var (
			a           entity.StructuredAddress
			street      sql.NullString
			district    sql.NullString
			subDistrict sql.NullString
			city        sql.NullString
			province    sql.NullString
			lat         sql.NullFloat64
			lon         sql.NullFloat64
		)

		err := rows.Scan(
			&a.ID,
			&a.ListingID,
			&a.FullAddress,
			&street,
			&district,
			&subDistrict,
			&city,
			&province,
			&lat,
			&lon,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}

		a.StreetName = nullStringValue(street)
		a.District = nullStringValue(district)
		a.SubDistrict = nullStringValue(subDistrict)
		a.City = nullStringValue(city)
		a.Province = nullStringValue(province)
		if lat.Valid {
			val := lat.Float64
			a.Latitude = &val
		}
		if lon.Valid {
			val := lon.Float64
			a.Longitude = &val
		}

		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}
	return addresses, nil
}
