package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/braillearn/backend/internal/domain/entities"
)

type DeviceRepository struct {
	db *pgxpool.Pool
}

func NewDeviceRepository(db *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert registers a device, refreshing its name and last-seen timestamp when
// it is already known.
func (r *DeviceRepository) Upsert(ctx context.Context, d *entities.Device) error {
	query := `
		INSERT INTO devices (id, name, last_seen)
		VALUES ($1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET name = excluded.name, last_seen = excluded.last_seen
	`

	_, err := r.db.Exec(ctx, query, d.ID, d.Name, d.LastSeen)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	return nil
}

// List returns all registered devices ordered by id.
func (r *DeviceRepository) List(ctx context.Context) ([]*entities.Device, error) {
	query := `SELECT id, name, last_seen FROM devices ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var devices []*entities.Device
	for rows.Next() {
		var d entities.Device
		if err = rows.Scan(&d.ID, &d.Name, &d.LastSeen); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		devices = append(devices, &d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	return devices, nil
}
