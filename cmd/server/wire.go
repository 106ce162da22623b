package main

import (
	"context"

	"garageflow/internal/config"
	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/domain/audit"
	"garageflow/internal/domain/billing"
	"garageflow/internal/domain/catalogs/client"
	"garageflow/internal/domain/catalogs/vehicle"
	"garageflow/internal/domain/draft"
	"garageflow/internal/domain/repairorder"
	"garageflow/internal/domain/settings"
	"garageflow/internal/infrastructure/alert"
	"garageflow/internal/infrastructure/blob"
	infranumerator "garageflow/internal/infrastructure/numerator"
	"garageflow/internal/infrastructure/storage/postgres"
	"garageflow/internal/infrastructure/storage/postgres/catalog_repo"
	"garageflow/internal/infrastructure/storage/postgres/document_repo"
	"garageflow/internal/infrastructure/storage/postgres/settings_repo"
	"garageflow/pkg/logger"
)

type application struct {
	clients      *client.Service
	vehicles     *vehicle.Service
	settings     *settings.Service
	billing      *billing.Service
	repairOrders *repairorder.Service
	autosaver    *draft.Autosaver
}

func wire(cfg config.Config, pool *postgres.Pool, log *logger.Logger) (*application, error) {
	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		return nil, err
	}
	outbox := postgres.NewOutboxPublisher(txManager)

	clients := client.NewService(catalog_repo.NewClientRepo(txManager), txManager, auditService)
	vehicles := vehicle.NewService(catalog_repo.NewVehicleRepo(txManager), clients, txManager, auditService)
	settingsService := settings.NewService(settings_repo.New(txManager), auditService)

	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}

	var alerter billing.Alerter
	if cfg.AlertsEnabled() {
		alertCfg := alert.Config{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			User:       cfg.SMTP.User,
			Password:   cfg.SMTP.Password,
			From:       cfg.SMTP.From,
			Recipients: cfg.SMTP.Recipients,
		}
		alerter = alert.NewEmailAlerter(alert.NewDialer(alertCfg), alertCfg, settingsService)
	} else {
		log.Warn("SMTP not configured, numbering alerts are logged only")
	}

	billingService := billing.NewService(billing.Config{
		Repo:      document_repo.NewBillingRepo(txManager),
		Counter:   infranumerator.NewFromTxManager(txManager),
		Settings:  settingsService,
		TxManager: txManager,
		Strategy:  strategy,
		Events:    outbox,
		Audit:     auditService,
		Alerter:   alerter,
	})
	billingService.Hooks().OnBeforeCreate(audit.EnrichCreatedBy[*billing.Document])
	billingService.Hooks().OnBeforeCreate(checkParties(clients, vehicles))

	if cfg.Blob.BaseURL == "" {
		log.Warn("BLOB_BASE_URL not set, photo uploads will fail")
	}
	repairOrders := repairorder.NewService(repairorder.Config{
		Repo: document_repo.NewRepairOrderRepo(txManager),
		Files: blob.NewHTTPStore(blob.Config{
			BaseURL:  cfg.Blob.BaseURL,
			Token:    cfg.Blob.Token,
			RetryMax: cfg.Blob.RetryMax,
			Timeout:  cfg.Blob.Timeout,
		}),
		Vehicles:  vehicles,
		TxManager: txManager,
		Events:    outbox,
		Audit:     auditService,
	})

	drafts, err := postgres.NewDraftStore(txManager)
	if err != nil {
		return nil, err
	}

	log.Infow("services wired", "numbering_strategy", strategy.String())

	return &application{
		clients:      clients,
		vehicles:     vehicles,
		settings:     settingsService,
		billing:      billingService,
		repairOrders: repairOrders,
		autosaver:    draft.NewAutosaver(drafts, cfg.DraftAutosaveInterval),
	}, nil
}

type clientResolver interface {
	Resolve(ctx context.Context, clientID id.ID) (*client.Client, error)
}

// checkParties rejects documents whose client is unknown or archived, or whose
// vehicle belongs to someone else.
func checkParties(clients clientResolver, vehicles repairorder.VehicleOwnership) func(context.Context, *billing.Document) error {
	return func(ctx context.Context, doc *billing.Document) error {
		if doc.ClientID == nil {
			if doc.VehicleID != nil {
				return apperror.NewValidation("vehicle requires a client").WithDetail("field", "vehicleId")
			}
			return nil
		}
		if _, err := clients.Resolve(ctx, *doc.ClientID); err != nil {
			return err
		}
		if doc.VehicleID != nil {
			return vehicles.BelongsTo(ctx, *doc.VehicleID, *doc.ClientID)
		}
		return nil
	}
}
