package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/techwithPranab/ride-offers/internal/models"
	"github.com/techwithPranab/ride-offers/internal/wire"
)

// PostgresStore persists offers in the ride_offers table. Route endpoints
// are flattened into columns; stops, schedule and pricing are stored as
// JSONB in their wire shapes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) SaveOffer(ctx context.Context, o *models.RideOffer) error {
	enc := wire.EncodeOffer(o)
	stops, err := json.Marshal(enc.Stops)
	if err != nil {
		return fmt.Errorf("marshal stops: %w", err)
	}
	sched, err := json.Marshal(enc.Schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	pricing, err := json.Marshal(enc.Pricing)
	if err != nil {
		return fmt.Errorf("marshal pricing: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO ride_offers(
			id, driver_id, status,
			source_name, source_address, source_lat, source_lng, source_place_id,
			dest_name, dest_address, dest_lat, dest_lng, dest_place_id,
			stops, schedule, pricing,
			vehicle_id, special_instructions, cancel_reason,
			booked_seats, total_bookings, created_at, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		o.ID, o.DriverID, o.Status,
		o.Source.Name, o.Source.Address, o.Source.Coordinates.Latitude, o.Source.Coordinates.Longitude, o.Source.PlaceID,
		o.Destination.Name, o.Destination.Address, o.Destination.Coordinates.Latitude, o.Destination.Coordinates.Longitude, o.Destination.PlaceID,
		stops, sched, pricing,
		o.VehicleID, o.SpecialInstructions, o.CancelReason,
		o.BookedSeats, o.TotalBookings, o.CreatedAt, o.UpdatedAt)
	return err
}

func (p *PostgresStore) GetOffer(ctx context.Context, id string) (*models.RideOffer, error) {
	row := p.db.QueryRowContext(ctx, selectOffer+` WHERE id=$1`, id)
	o, err := scanOffer(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return o, err
}

func (p *PostgresStore) ListOffersByDriver(ctx context.Context, driverID string) ([]*models.RideOffer, error) {
	rows, err := p.db.QueryContext(ctx, selectOffer+` WHERE driver_id=$1 ORDER BY created_at DESC`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.RideOffer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CancelOffer(ctx context.Context, id, reason string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE ride_offers SET status=$1, cancel_reason=$2, updated_at=now()
		 WHERE id=$3 AND status IN ($4,$5)`,
		models.StatusCancelled, reason, id, models.StatusDraft, models.StatusPublished)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// distinguish a missing row from a non-cancelable status
		var status string
		err := p.db.QueryRowContext(ctx, `SELECT status FROM ride_offers WHERE id=$1`, id).Scan(&status)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrNotCancelable
	}
	return nil
}

const selectOffer = `SELECT id, driver_id, status,
	source_name, source_address, source_lat, source_lng, source_place_id,
	dest_name, dest_address, dest_lat, dest_lng, dest_place_id,
	stops, schedule, pricing,
	vehicle_id, special_instructions, cancel_reason,
	booked_seats, total_bookings, created_at, updated_at
	FROM ride_offers`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (*models.RideOffer, error) {
	var (
		o              models.RideOffer
		stopsB, schedB []byte
		pricingB       []byte
	)
	err := row.Scan(&o.ID, &o.DriverID, &o.Status,
		&o.Source.Name, &o.Source.Address, &o.Source.Coordinates.Latitude, &o.Source.Coordinates.Longitude, &o.Source.PlaceID,
		&o.Destination.Name, &o.Destination.Address, &o.Destination.Coordinates.Latitude, &o.Destination.Coordinates.Longitude, &o.Destination.PlaceID,
		&stopsB, &schedB, &pricingB,
		&o.VehicleID, &o.SpecialInstructions, &o.CancelReason,
		&o.BookedSeats, &o.TotalBookings, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	var payload wire.OfferPayload
	if err := json.Unmarshal(stopsB, &payload.Stops); err != nil {
		return nil, fmt.Errorf("unmarshal stops: %w", err)
	}
	if err := json.Unmarshal(schedB, &payload.Schedule); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	if err := json.Unmarshal(pricingB, &payload.Pricing); err != nil {
		return nil, fmt.Errorf("unmarshal pricing: %w", err)
	}
	d, err := payload.Draft()
	if err != nil {
		return nil, err
	}
	if d.Schedule == nil || d.Pricing == nil {
		return nil, fmt.Errorf("offer %s: stored row missing schedule or pricing", o.ID)
	}
	o.Stops = d.Stops
	o.Schedule = *d.Schedule
	o.Pricing = *d.Pricing
	return &o, nil
}
