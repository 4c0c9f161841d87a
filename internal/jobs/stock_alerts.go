package jobs

import (
	"context"
	"log"
	"time"

	"homestock/internal/models"
	"homestock/internal/repositories"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// StockAlertService periodically reports items sitting at or below their
// alert threshold. It only logs; warning records are written synchronously
// by the mutation that crossed the line, never from here.
type StockAlertService struct {
	db        repositories.DB
	scheduler gocron.Scheduler
}

func NewStockAlertService(db repositories.DB) (*StockAlertService, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &StockAlertService{db: db, scheduler: scheduler}, nil
}

// Register schedules the sweep at the given interval.
func (s *StockAlertService) Register(interval time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.Sweep, context.Background()),
		gocron.WithName("low-stock-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (s *StockAlertService) Start() {
	log.Printf("Starting low-stock sweep scheduler")
	s.scheduler.Start()
}

func (s *StockAlertService) Stop() error {
	log.Printf("Stopping low-stock sweep scheduler")
	return s.scheduler.Shutdown()
}

// Sweep walks every household and logs its low-stock items.
func (s *StockAlertService) Sweep(ctx context.Context) {
	itemRepo := repositories.NewItemRepo(s.db)
	householdIDs, err := itemRepo.ListHouseholdIDs(ctx)
	if err != nil {
		log.Printf("Low-stock sweep failed to list households: %v", err)
		return
	}

	for _, householdID := range householdIDs {
		items, err := s.LowStockItems(ctx, householdID)
		if err != nil {
			log.Printf("Low-stock sweep failed for household %s: %v", householdID.String(), err)
			continue
		}
		for _, item := range items {
			log.Printf("LOW STOCK: household=%s item=%s quantity=%d threshold=%d",
				householdID.String(), item.Name, item.Quantity, item.MinStockAlert)
		}
	}
}

// LowStockItems lists one household's items at or below their threshold.
func (s *StockAlertService) LowStockItems(ctx context.Context, householdID uuid.UUID) ([]*models.Item, error) {
	return repositories.NewItemRepo(s.db).ListLowStock(ctx, householdID)
}
