package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"homepro/internal/app/commands"
	"homepro/internal/app/dto"
	availabilityapp "homepro/internal/app/handlers/availability"
)

// loadAvailabilityFixtures publishes the weekly templates listed in a JSON
// file through the command bus, so fixtures get the same validation as API
// calls.
func loadAvailabilityFixtures(ctx context.Context, bus commands.Bus, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("availability fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []dto.AvailabilitySettings
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	for _, fx := range fixtures {
		cmd := availabilityapp.UpdateSettingsCommand{ProfessionalID: fx.ProfessionalID, Settings: fx}
		if _, err := commands.Dispatch[availabilityapp.UpdateSettingsCommand, *dto.AvailabilitySettings](ctx, bus, cmd); err != nil {
			logger.Error("availability fixture rejected", "professional_id", fx.ProfessionalID, "error", err)
			continue
		}
		logger.Info("availability fixture imported", "professional_id", fx.ProfessionalID)
	}
	return nil
}
