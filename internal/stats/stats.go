// Package stats derives ticket counts from materialized projections: a
// user-scoped view for the dashboard and a global view for the privileged
// admin dashboard. Aggregation is one linear scan over the current snapshot.
package stats

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/gateway"
	"github.com/spec-kit/helpdesk-core/internal/projection"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// UserStats counts one user's tickets.
type UserStats struct {
	TotalTickets    int
	ResolvedTickets int
	PendingTickets  int
	UrgentTickets   int
}

// GlobalStats counts the whole collection.
type GlobalStats struct {
	TotalUsers      int
	TotalTickets    int
	ResolvedTickets int
	PendingTickets  int
	RejectedTickets int
}

// Scoped tallies a user-scoped snapshot.
func Scoped(tickets []domain.Ticket) UserStats {
	s := UserStats{TotalTickets: len(tickets)}
	for _, t := range tickets {
		if t.Status == domain.TicketStatusResolved {
			s.ResolvedTickets++
		}
		if t.Status == domain.TicketStatusPending {
			s.PendingTickets++
		}
		if t.Priority == domain.TicketPriorityUrgent {
			s.UrgentTickets++
		}
	}
	return s
}

// Global tallies the full collection snapshot.
func Global(tickets []domain.Ticket, userCount int) GlobalStats {
	s := GlobalStats{TotalUsers: userCount, TotalTickets: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusResolved:
			s.ResolvedTickets++
		case domain.TicketStatusPending:
			s.PendingTickets++
		case domain.TicketStatusRejected:
			s.RejectedTickets++
		}
	}
	return s
}

// ResolutionRate returns the resolved fraction. The second result is false
// when there are no tickets: callers render a no-data state instead of a
// division by zero.
func ResolutionRate(resolved, total int) (float64, bool) {
	if total == 0 {
		return 0, false
	}
	return float64(resolved) / float64(total), true
}

// Aggregator binds the stats to live projections and recomputes on pull.
type Aggregator struct {
	tickets *projection.Handle[domain.Ticket]
	users   *projection.Handle[domain.UserProfile]
}

// OpenScoped opens an aggregator over one user's tickets.
func OpenScoped(ctx context.Context, gw gateway.Gateway, uid string, logger *zap.Logger) (*Aggregator, error) {
	tickets, err := projection.Open(ctx, gw, gateway.Query{
		Collection: gateway.CollectionTickets,
		Where:      []gateway.Where{{Field: "userId", Value: uid}},
	}, domain.DecodeTicket, logger)
	if err != nil {
		return nil, apperrors.NewSubscriptionError(err)
	}
	return &Aggregator{tickets: tickets}, nil
}

// OpenGlobal opens an aggregator over the entire ticket and user
// collections. Reachable only through the privileged admin view; the caller
// consults the authorization gate before opening it.
func OpenGlobal(ctx context.Context, gw gateway.Gateway, logger *zap.Logger) (*Aggregator, error) {
	tickets, err := projection.Open(ctx, gw, gateway.Query{
		Collection: gateway.CollectionTickets,
	}, domain.DecodeTicket, logger)
	if err != nil {
		return nil, apperrors.NewSubscriptionError(err)
	}
	users, err := projection.Open(ctx, gw, gateway.Query{
		Collection: gateway.CollectionUsers,
	}, domain.DecodeProfile, logger)
	if err != nil {
		tickets.Close()
		return nil, apperrors.NewSubscriptionError(err)
	}
	return &Aggregator{tickets: tickets, users: users}, nil
}

// Close tears down the underlying projections.
func (a *Aggregator) Close() {
	if a.tickets != nil {
		a.tickets.Close()
	}
	if a.users != nil {
		a.users.Close()
	}
}

// Scoped recomputes user-scoped stats from the current snapshot.
func (a *Aggregator) Scoped() (UserStats, error) {
	snap := a.tickets.Current()
	if snap.Err != nil {
		return UserStats{}, apperrors.NewSubscriptionError(snap.Err)
	}
	return Scoped(snap.Items), nil
}

// Global recomputes global stats from the current snapshots.
func (a *Aggregator) Global() (GlobalStats, error) {
	if a.users == nil {
		return GlobalStats{}, apperrors.NewForbidden("global stats require the privileged aggregator")
	}
	ticketSnap := a.tickets.Current()
	if ticketSnap.Err != nil {
		return GlobalStats{}, apperrors.NewSubscriptionError(ticketSnap.Err)
	}
	userSnap := a.users.Current()
	if userSnap.Err != nil {
		return GlobalStats{}, apperrors.NewSubscriptionError(userSnap.Err)
	}
	return Global(ticketSnap.Items, len(userSnap.Items)), nil
}
