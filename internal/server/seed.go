package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/flagtactics/playbook/internal/playbook"
)

// SeedDemo creates a demo account holding a small starter playbook.
// Idempotent: does nothing if the account already exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, accounts AccountStore, data UserDataStore, email, password string) error {
	_, _, err := accounts.AccountByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}
	acct, err := accounts.CreateAccount(ctx, email, string(hash))
	if err != nil {
		return fmt.Errorf("creating demo account: %w", err)
	}

	if err := data.SaveUserData(ctx, acct.ID, demoPlaybook(time.Now().UTC())); err != nil {
		return fmt.Errorf("seeding demo playbook: %w", err)
	}
	logger.Info("demo account created and seeded", "email", email)
	return nil
}

func demoPlaybook(now time.Time) playbook.UserData {
	folderID := "demo-red-zone"
	offense := func(id, role string, x, y float64) playbook.PlayerMarker {
		return playbook.PlayerMarker{ID: id, X: x, Y: y, Color: "#1d4ed8", Role: role, Side: playbook.SideOffense}
	}

	slant := playbook.Play{
		ID:       "demo-slant-flat",
		Name:     "Slant Flat",
		FolderID: &folderID,
		Players: []playbook.PlayerMarker{
			offense("1", "QB", 200, 320),
			offense("2", "C", 200, 280),
			offense("3", "WR", 60, 280),
			offense("4", "WR", 340, 280),
			offense("5", "RB", 240, 330),
		},
		Routes: []playbook.Route{
			{ID: "r3", Points: []playbook.Point{{60, 280}, {60, 250}, {130, 190}}, Style: playbook.LineSolid, Mode: playbook.RouteStraight, Arrow: true},
			{ID: "r4", Points: []playbook.Point{{340, 280}, {340, 240}, {270, 180}}, Style: playbook.LineSolid, Mode: playbook.RouteStraight, Arrow: true},
			{ID: "r5", Points: []playbook.Point{{240, 330}, {330, 310}}, Style: playbook.LineDashed, Mode: playbook.RouteCurve, Arrow: true},
		},
		PlayerRouteAssociations: playbook.RouteAssociations{"3": {"r3"}, "4": {"r4"}, "5": {"r5"}},
		Notes:                   "Read the flat defender. Slant if he widens, flat if he sinks.",
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	return playbook.UserData{
		Plays:     []playbook.Play{slant},
		Folders:   []playbook.Folder{{ID: folderID, Name: "Red Zone", CreatedAt: now, UpdatedAt: now}},
		UpdatedAt: now,
	}
}
