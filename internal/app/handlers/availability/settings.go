package availability

import (
	"context"
	"errors"
	"time"

	"homepro/internal/app/commands"
	"homepro/internal/app/dto"
	handlersupport "homepro/internal/app/handlers/support"
	"homepro/internal/app/outbox"
	"homepro/internal/app/queries"
	"homepro/internal/app/uow"
	domainavailability "homepro/internal/domain/availability"
)

const (
	getSettingsKey    = "availability.settings"
	updateSettingsKey = "availability.update_settings"
)

type GetSettingsQuery struct {
	ProfessionalID string `validate:"required"`
}

func (q GetSettingsQuery) Key() string { return getSettingsKey }

type GetSettingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetSettingsHandler) Handle(ctx context.Context, q GetSettingsQuery) (dto.AvailabilitySettings, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AvailabilitySettings{}, err
	}
	defer cleanup()
	settings, err := unit.Availability().Settings(execCtx, q.ProfessionalID)
	if err != nil {
		return dto.AvailabilitySettings{}, err
	}
	return dto.MapSettings(settings), nil
}

// UpdateSettingsCommand replaces the weekly template of a professional,
// creating it on first use. ActorID is the professional making the change.
type UpdateSettingsCommand struct {
	ProfessionalID string                   `validate:"required"`
	ActorID        string
	Settings       dto.AvailabilitySettings `validate:"-"`
	Now            time.Time
}

func (c UpdateSettingsCommand) Key() string { return updateSettingsKey }

type UpdateSettingsHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *UpdateSettingsHandler) Handle(ctx context.Context, cmd UpdateSettingsCommand) (*dto.AvailabilitySettings, error) {
	next, err := cmd.Settings.ToDomain()
	if err != nil {
		return nil, err
	}
	var out dto.AvailabilitySettings
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		current, err := unit.Availability().Settings(ctx, cmd.ProfessionalID)
		if errors.Is(err, domainavailability.ErrSettingsNotFound) {
			current = &domainavailability.Settings{ProfessionalID: cmd.ProfessionalID}
		} else if err != nil {
			return err
		}
		if err := current.Replace(next, handlersupport.NowOr(cmd.Now)); err != nil {
			return err
		}
		if err := unit.Availability().Save(ctx, current); err != nil {
			return err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, current.DrainEvents()); err != nil {
			return err
		}
		out = dto.MapSettings(current)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

var _ queries.Handler[GetSettingsQuery, dto.AvailabilitySettings] = (*GetSettingsHandler)(nil)
var _ commands.Handler[UpdateSettingsCommand, *dto.AvailabilitySettings] = (*UpdateSettingsHandler)(nil)
