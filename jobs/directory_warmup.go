package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/wasteops/wasteops/internal/directory"
)

// DirectoryWarmer preloads directory lists so scope pickers hit a warm cache.
type DirectoryWarmer struct {
	service *directory.Service
	logger  *slog.Logger
}

// NewDirectoryWarmer constructs the warmup handler.
func NewDirectoryWarmer(service *directory.Service, logger *slog.Logger) *DirectoryWarmer {
	return &DirectoryWarmer{service: service, logger: logger}
}

// Handle processes a directory warmup task.
func (dw *DirectoryWarmer) Handle(ctx context.Context, task *asynq.Task) error {
	var payload DirectoryWarmupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("jobs: decode warmup payload: %w", err)
	}

	if payload.CompanyID != 0 {
		return dw.service.WarmCompany(ctx, payload.CompanyID)
	}

	companies, err := dw.service.ListCompanies(ctx, directory.DefaultListLimit)
	if err != nil {
		return fmt.Errorf("jobs: warmup list companies: %w", err)
	}
	for _, company := range companies {
		if err := dw.service.WarmCompany(ctx, company.ID); err != nil {
			if dw.logger != nil {
				dw.logger.Warn("directory warmup", slog.Int64("company_id", company.ID), slog.Any("error", err))
			}
		}
	}
	return nil
}
