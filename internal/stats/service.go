package stats

import (
	"context"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/cache"
	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/models"
)

// Service runs the read-side aggregations for the dashboards.
type Service struct {
	db    *bun.DB
	cache *cache.Cache
}

func NewService(db *bun.DB, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

type PublicStats struct {
	TicketCount  int `json:"ticket_count"`
	RouteCount   int `json:"route_count"`
	VendorCount  int `json:"vendor_count"`
	BookingCount int `json:"booking_count"`
}

type AdminStats struct {
	UserCount         int     `json:"user_count"`
	VendorCount       int     `json:"vendor_count"`
	TicketCount       int     `json:"ticket_count"`
	PendingModeration int     `json:"pending_moderation"`
	BookingCount      int     `json:"booking_count"`
	PaymentCount      int     `json:"payment_count"`
	TotalRevenue      float64 `json:"total_revenue"`
}

type VendorStats struct {
	TicketCount      int            `json:"ticket_count"`
	BookingsByStatus map[string]int `json:"bookings_by_status"`
	Revenue          float64        `json:"revenue"`
}

type UserStats struct {
	BookingsByStatus map[string]int `json:"bookings_by_status"`
	TotalSpent       float64        `json:"total_spent"`
}

// GetPublicStats serves the homepage counters, cached between writes going
// through the normal TTL.
func (s *Service) GetPublicStats(ctx context.Context) (*PublicStats, error) {
	var cached PublicStats
	if s.cache.Get(ctx, cache.KeyPublicStats, &cached) {
		return &cached, nil
	}

	stats := &PublicStats{}

	ticketCount, err := s.db.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("verification_status = ?", models.VerificationApproved).
		Where("is_hidden = ?", false).
		Count(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count tickets", err)
	}
	stats.TicketCount = ticketCount

	err = s.db.NewRaw(`
		SELECT COUNT(DISTINCT from_location || ' -> ' || to_location)
		FROM tickets
		WHERE verification_status = ? AND is_hidden = ?`,
		models.VerificationApproved, false).
		Scan(ctx, &stats.RouteCount)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count routes", err)
	}

	vendorCount, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("role = ?", models.RoleVendor).
		Count(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count vendors", err)
	}
	stats.VendorCount = vendorCount

	bookingCount, err := s.db.NewSelect().
		Model((*models.Booking)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count bookings", err)
	}
	stats.BookingCount = bookingCount

	s.cache.Set(ctx, cache.KeyPublicStats, stats)
	return stats, nil
}

func (s *Service) GetAdminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}

	var err error
	if stats.UserCount, err = s.db.NewSelect().Model((*models.User)(nil)).Count(ctx); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count users", err)
	}
	if stats.VendorCount, err = s.db.NewSelect().Model((*models.User)(nil)).
		Where("role = ?", models.RoleVendor).Count(ctx); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count vendors", err)
	}
	if stats.TicketCount, err = s.db.NewSelect().Model((*models.Ticket)(nil)).Count(ctx); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count tickets", err)
	}
	if stats.PendingModeration, err = s.db.NewSelect().Model((*models.Ticket)(nil)).
		Where("verification_status = ?", models.VerificationPending).Count(ctx); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count pending tickets", err)
	}
	if stats.BookingCount, err = s.db.NewSelect().Model((*models.Booking)(nil)).Count(ctx); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count bookings", err)
	}
	if stats.PaymentCount, err = s.db.NewSelect().Model((*models.Payment)(nil)).Count(ctx); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count payments", err)
	}

	err = s.db.NewRaw(`SELECT COALESCE(SUM(amount), 0) FROM payments`).Scan(ctx, &stats.TotalRevenue)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to sum revenue", err)
	}
	return stats, nil
}

func (s *Service) GetVendorStats(ctx context.Context, email string) (*VendorStats, error) {
	stats := &VendorStats{BookingsByStatus: map[string]int{}}

	ticketCount, err := s.db.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("vendor_email = ?", email).
		Count(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to count vendor tickets", err)
	}
	stats.TicketCount = ticketCount

	if err := s.bookingsByStatus(ctx, "vendor_email", email, stats.BookingsByStatus); err != nil {
		return nil, err
	}

	err = s.db.NewRaw(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE vendor_email = ?`, email).
		Scan(ctx, &stats.Revenue)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to sum vendor revenue", err)
	}
	return stats, nil
}

func (s *Service) GetUserStats(ctx context.Context, email string) (*UserStats, error) {
	stats := &UserStats{BookingsByStatus: map[string]int{}}

	if err := s.bookingsByStatus(ctx, "user_email", email, stats.BookingsByStatus); err != nil {
		return nil, err
	}

	err := s.db.NewRaw(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE user_email = ?`, email).
		Scan(ctx, &stats.TotalSpent)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to sum user spend", err)
	}
	return stats, nil
}

func (s *Service) bookingsByStatus(ctx context.Context, column, email string, out map[string]int) error {
	type row struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	var rows []row
	err := s.db.NewRaw(
		`SELECT status, COUNT(*) AS count FROM bookings WHERE `+column+` = ? GROUP BY status`, email).
		Scan(ctx, &rows)
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to group bookings", err)
	}
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return nil
}

// GetLocations lists every location that appears on a visible ticket, as
// either origin or destination.
func (s *Service) GetLocations(ctx context.Context) ([]string, error) {
	var locations []string
	err := s.db.NewRaw(`
		SELECT DISTINCT from_location AS location FROM tickets
			WHERE verification_status = ? AND is_hidden = ?
		UNION
		SELECT DISTINCT to_location FROM tickets
			WHERE verification_status = ? AND is_hidden = ?
		ORDER BY location`,
		models.VerificationApproved, false,
		models.VerificationApproved, false).
		Scan(ctx, &locations)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to list locations", err)
	}
	if locations == nil {
		locations = []string{}
	}
	return locations, nil
}
