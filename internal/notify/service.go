package notify

//go:generate mockgen -source=service.go -destination=service_mock.go -package=notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

type Users interface {
	ListUsers(ctx context.Context, filter ledger.UserFilter) ([]*ledger.User, error)
}

type Snapshotter interface {
	Snapshot(ctx context.Context, userID int64, transferLimit int) (*zakat.Snapshot, error)
}

type Sender interface {
	Send(ctx context.Context, text string) error
}

type Summary struct {
	Users    int
	Notified int
	Failed   int
}

type Service struct {
	users  Users
	snaps  Snapshotter
	sender Sender
	loc    *Localizer
}

func NewService(users Users, snaps Snapshotter, sender Sender, loc *Localizer) *Service {
	return &Service{users: users, snaps: snaps, sender: sender, loc: loc}
}

// Message renders the reminders of one user, or "" when nothing is due.
func (s *Service) Message(user *ledger.User, notes []zakat.Notification) string {
	if len(notes) == 0 {
		return ""
	}

	name := user.FullName
	if name == "" {
		name = user.Email
	}

	lines := []string{s.loc.Heading(name)}
	for _, n := range notes {
		lines = append(lines, "- "+s.loc.Reminder(n))
	}

	return strings.Join(lines, "\n")
}

// Run sends today's reminders for every active user. A failure for one user
// is logged and counted; the sweep carries on with the rest.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	users, err := s.users.ListUsers(ctx, ledger.UserFilter{ActiveOnly: true})
	if err != nil {
		return Summary{}, fmt.Errorf("list users: %w", err)
	}

	sum := Summary{Users: len(users)}

	var errs []error

	for _, u := range users {
		snap, err := s.snaps.Snapshot(ctx, u.ID, 0)
		if err != nil {
			sum.Failed++
			errs = append(errs, fmt.Errorf("user %d: %w", u.ID, err))
			slog.Error("failed to compute snapshot", "user_id", u.ID, "error", err)

			continue
		}

		text := s.Message(u, snap.Notifications)
		if text == "" {
			continue
		}

		if err := s.sender.Send(ctx, text); err != nil {
			sum.Failed++
			errs = append(errs, fmt.Errorf("user %d: %w", u.ID, err))
			slog.Error("failed to send reminder", "user_id", u.ID, "error", err)

			continue
		}

		sum.Notified++
	}

	return sum, errors.Join(errs...)
}
