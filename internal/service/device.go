package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/braillearn/backend/internal/domain/entities"
)

var ErrDeviceIDRequired = errors.New("device id required")

type DeviceRepository interface {
	Upsert(ctx context.Context, d *entities.Device) error
	List(ctx context.Context) ([]*entities.Device, error)
}

// DeviceService registers braille hardware units.
type DeviceService struct {
	devices DeviceRepository
}

func NewDeviceService(devices DeviceRepository) *DeviceService {
	return &DeviceService{devices: devices}
}

// Register creates or refreshes a device record, stamping last-seen with the
// current time in milliseconds.
func (s *DeviceService) Register(ctx context.Context, id, name string) (*entities.Device, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrDeviceIDRequired
	}
	if name = strings.TrimSpace(name); name == "" {
		name = id
	}

	device := &entities.Device{
		ID:       id,
		Name:     name,
		LastSeen: time.Now().UnixMilli(),
	}
	if err := s.devices.Upsert(ctx, device); err != nil {
		return nil, err
	}

	return device, nil
}

// List returns all registered devices.
func (s *DeviceService) List(ctx context.Context) ([]*entities.Device, error) {
	return s.devices.List(ctx)
}
