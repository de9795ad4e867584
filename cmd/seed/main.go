// Command seed creates a demo tenant with an admin, a worker, the default
// job statuses, one customer and one job.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/config"
	"github.com/yukikurage/field-service-api/internal/database"
	"github.com/yukikurage/field-service-api/internal/logger"
	"github.com/yukikurage/field-service-api/internal/models"
	"github.com/yukikurage/field-service-api/internal/policy"
	"github.com/yukikurage/field-service-api/internal/repository"
	"github.com/yukikurage/field-service-api/internal/services"
	"github.com/yukikurage/field-service-api/internal/storage"
)

var defaultStatuses = []struct{ name, color string }{
	{"New", "#6366f1"},
	{"In Progress", "#f59e0b"},
	{"On Hold", "#ef4444"},
	{"Completed", "#22c55e"},
}

type options struct {
	tenant      string
	adminEmail  string
	workerEmail string
	password    string
}

func main() {
	var opts options
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&opts.tenant, "tenant", "Demo Field Services", "name of the tenant to create")
	flagSet.StringVar(&opts.adminEmail, "admin-email", "admin@example.com", "email of the admin user")
	flagSet.StringVar(&opts.workerEmail, "worker-email", "worker@example.com", "email of the worker user")
	flagSet.StringVar(&opts.password, "password", "password123", "password for both users")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&logger.LogConfig{Level: cfg.LogLevel, Environment: cfg.AppEnv, ServiceName: "field-service-seed"}); err != nil {
		return err
	}
	log := logger.GetLogger()
	defer log.Sync()

	if err := database.Connect(cfg); err != nil {
		return err
	}
	if err := database.Migrate(); err != nil {
		return err
	}
	db := database.GetDB()

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return err
	}
	svc := services.NewContainer(db, auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL), store)

	tenant := &models.Tenant{Name: opts.tenant, IsActive: true}
	if err := repository.NewTenantRepository(db).Create(tenant); err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	admin, err := svc.Users.Create(services.CreateUserInput{
		TenantID: tenant.ID,
		Email:    opts.adminEmail,
		Password: opts.password,
		Name:     "Admin User",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	worker, err := svc.Users.Create(services.CreateUserInput{
		TenantID: tenant.ID,
		Email:    opts.workerEmail,
		Password: opts.password,
		Name:     "Field Worker",
		Role:     models.RoleWorker,
	})
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}

	var first *models.JobStatus
	for _, s := range defaultStatuses {
		name, color := s.name, s.color
		status, err := svc.Statuses.Create(tenant.ID, services.StatusInput{Name: &name, Color: &color})
		if err != nil {
			return fmt.Errorf("create status %q: %w", name, err)
		}
		if first == nil {
			first = status
		}
	}

	customerName := "Acme Corporation"
	customerEmail := "contact@acme.example"
	customer, err := svc.Customers.Create(tenant.ID, services.CustomerInput{Name: &customerName, Email: &customerEmail})
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}

	actor := policy.Actor{UserID: admin.ID, TenantID: tenant.ID, Role: admin.Role}
	scheduled := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	description := "Annual inspection of the rooftop HVAC unit"
	job, err := svc.Jobs.Create(actor, services.CreateJobInput{
		CustomerID:       customer.ID,
		StatusID:         first.ID,
		Title:            "HVAC maintenance",
		AssignedWorkerID: &worker.ID,
		Description:      &description,
		ScheduledDate:    &scheduled,
	})
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	for _, title := range []string{"Replace air filter", "Check refrigerant level", "Inspect belts"} {
		if _, err := svc.Tasks.Create(actor, services.CreateTaskInput{JobID: job.ID, Title: title}); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
	}

	log.Info("Seed data created",
		zap.String("tenant_id", tenant.ID),
		zap.String("admin_email", admin.Email),
		zap.String("worker_email", worker.Email),
		zap.String("job_id", job.ID),
		zap.String("customer_link_token", job.CustomerAccessToken),
	)
	return nil
}
