package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/whybepb/campus-fixit/internal/auth"
	"github.com/whybepb/campus-fixit/internal/config"
	"github.com/whybepb/campus-fixit/internal/domain"
	"github.com/whybepb/campus-fixit/internal/observability"
	"github.com/whybepb/campus-fixit/internal/persistence"
	"github.com/whybepb/campus-fixit/internal/repository"
)

// Seeds test accounts and a handful of sample issues. Existing rows are
// wiped first, so never point this at a production database.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	if _, err := pool.Exec(ctx, `TRUNCATE issues, password_reset_tokens, users CASCADE`); err != nil {
		logger.Fatal("failed to clear existing data", zap.Error(err))
	}
	logger.Info("cleared existing data")

	users := repository.NewUserRepository(pool)
	issues := repository.NewIssueRepository(pool)

	admin := seedUser(ctx, logger, users, cfg.Auth.BcryptCost, seedAccount{
		Email:      "admin@campus.edu",
		Password:   "admin123",
		Name:       "Admin User",
		Role:       domain.RoleAdmin,
		Department: str("Administration"),
	})
	john := seedUser(ctx, logger, users, cfg.Auth.BcryptCost, seedAccount{
		Email:      "student@campus.edu",
		Password:   "student123",
		Name:       "John Student",
		Role:       domain.RoleStudent,
		StudentID:  str("STU001"),
		Department: str("Computer Science"),
	})
	jane := seedUser(ctx, logger, users, cfg.Auth.BcryptCost, seedAccount{
		Email:      "jane@campus.edu",
		Password:   "student123",
		Name:       "Jane Doe",
		Role:       domain.RoleStudent,
		StudentID:  str("STU002"),
		Department: str("Electrical Engineering"),
	})
	_ = admin
	logger.Info("created users")

	now := time.Now()
	samples := []domain.Issue{
		{
			Title:       "Broken Light in Library",
			Description: "The fluorescent light in the reading area of the main library is flickering and needs replacement. It has been causing headaches for students studying there.",
			Category:    domain.CategoryElectrical,
			Priority:    domain.PriorityMedium,
			Status:      domain.IssueStatusOpen,
			Location:    "Main Library, 2nd Floor, Reading Area",
			ReportedBy:  john.ID,
		},
		{
			Title:        "Water Leakage in Boys Hostel",
			Description:  "There is a significant water leak in the bathroom on the 3rd floor. The water is seeping into the hallway and making the floor slippery.",
			Category:     domain.CategoryWater,
			Priority:     domain.PriorityHigh,
			Status:       domain.IssueStatusInProgress,
			Location:     "Boys Hostel Block A, 3rd Floor, Bathroom 3",
			ReportedBy:   john.ID,
			AdminRemarks: str("Plumber has been notified. Will be fixed by tomorrow."),
		},
		{
			Title:       "WiFi Not Working in Lab",
			Description: "The WiFi connection in Computer Lab 2 is extremely slow and keeps disconnecting. Students cannot complete their assignments.",
			Category:    domain.CategoryInternet,
			Priority:    domain.PriorityUrgent,
			Status:      domain.IssueStatusOpen,
			Location:    "Computer Science Building, Lab 2",
			ReportedBy:  jane.ID,
		},
		{
			Title:        "Broken Window in Classroom",
			Description:  "One of the windows in Room 101 is cracked and poses a safety hazard. Glass pieces might fall and injure someone.",
			Category:     domain.CategoryInfrastructure,
			Priority:     domain.PriorityHigh,
			Status:       domain.IssueStatusResolved,
			Location:     "Academic Block B, Room 101",
			ReportedBy:   jane.ID,
			AdminRemarks: str("Window has been replaced with new glass."),
			ResolvedAt:   &now,
		},
		{
			Title:       "AC Not Cooling in Auditorium",
			Description: "The air conditioning in the main auditorium is not cooling properly. The upcoming seminar might be affected.",
			Category:    domain.CategoryElectrical,
			Priority:    domain.PriorityMedium,
			Status:      domain.IssueStatusOpen,
			Location:    "Main Auditorium",
			ReportedBy:  john.ID,
		},
	}

	for i := range samples {
		issue := &samples[i]
		if err := issues.Create(ctx, issue); err != nil {
			logger.Fatal("failed to seed issue", zap.String("title", issue.Title), zap.Error(err))
		}
		// Create does not persist remarks or resolution timestamps.
		if issue.AdminRemarks != nil || issue.ResolvedAt != nil {
			if err := issues.Update(ctx, issue); err != nil {
				logger.Fatal("failed to finalize issue", zap.String("title", issue.Title), zap.Error(err))
			}
		}
	}
	logger.Info("created sample issues", zap.Int("count", len(samples)))

	logger.Info("seed completed",
		zap.String("admin", "admin@campus.edu / admin123"),
		zap.String("student", "student@campus.edu / student123"),
		zap.String("student2", "jane@campus.edu / student123"),
	)
}

type seedAccount struct {
	Email      string
	Password   string
	Name       string
	Role       domain.Role
	StudentID  *string
	Department *string
}

func seedUser(ctx context.Context, logger *zap.Logger, users repository.UserRepository, bcryptCost int, account seedAccount) *domain.User {
	hash, err := auth.HashPassword(account.Password, bcryptCost)
	if err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}
	user := &domain.User{
		Email:        account.Email,
		Name:         account.Name,
		PasswordHash: hash,
		Role:         account.Role,
		StudentID:    account.StudentID,
		Department:   account.Department,
	}
	if err := users.Create(ctx, user); err != nil {
		logger.Fatal("failed to seed user", zap.String("email", account.Email), zap.Error(err))
	}
	return user
}

func str(s string) *string {
	return &s
}
