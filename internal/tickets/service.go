package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-marketplace/internal/cache"
	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	defaultLatest   = 8
)

type DBLayer interface {
	CreateTicket(ctx context.Context, ticket models.Ticket) error
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	SearchPublic(ctx context.Context, search models.TicketSearch) ([]models.Ticket, int, error)
	ListAdvertised(ctx context.Context) ([]models.Ticket, error)
	ListLatest(ctx context.Context, limit int) ([]models.Ticket, error)
	ListByVendor(ctx context.Context, email string) ([]models.Ticket, error)
	ListAll(ctx context.Context) ([]models.Ticket, error)
	UpdateTicket(ctx context.Context, ticket models.Ticket) error
	DeleteTicket(ctx context.Context, id string) error
	DeleteTicketCascade(ctx context.Context, id string) error
	SetVerificationStatus(ctx context.Context, id, status string) error
	AdvertiseTicket(ctx context.Context, id string) (bool, error)
	UnadvertiseTicket(ctx context.Context, id string) error
}

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type EventPublisher interface {
	PublishTicketModerated(ticket models.Ticket) error
}

type TicketService struct {
	DB     DBLayer
	Users  UserStore
	Events EventPublisher
	Cache  *cache.Cache
	Logger *logger.Logger
}

func NewTicketService(db DBLayer, users UserStore, events EventPublisher, c *cache.Cache, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, Users: users, Events: events, Cache: c, Logger: log}
}

// Create lists a new ticket for vendorEmail. Fraud-flagged vendors may not
// list; new tickets always start unverified and unadvertised.
func (s *TicketService) Create(ctx context.Context, vendorEmail string, ticket models.Ticket) (*models.Ticket, error) {
	vendor, err := s.Users.GetUserByEmail(ctx, vendorEmail)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load vendor", err)
	}
	if vendor.IsFraud {
		return nil, errs.New(errs.Forbidden, "vendor account is suspended")
	}

	ticket.TicketID = uuid.NewString()
	ticket.VendorEmail = vendorEmail
	ticket.VerificationStatus = models.VerificationPending
	ticket.IsAdvertised = false
	ticket.IsHidden = false
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt

	if err := s.DB.CreateTicket(ctx, ticket); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to create ticket", err)
	}

	s.Logger.Info("TICKET", fmt.Sprintf("Vendor %s listed ticket %s", vendorEmail, ticket.TicketID))
	return &ticket, nil
}

// Search serves the public catalog page.
func (s *TicketService) Search(ctx context.Context, search models.TicketSearch) (*models.TicketPage, error) {
	if search.Limit <= 0 {
		search.Limit = defaultPageSize
	}
	if search.Limit > maxPageSize {
		search.Limit = maxPageSize
	}
	if search.Page < 0 {
		search.Page = 0
	}

	tickets, total, err := s.DB.SearchPublic(ctx, search)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to search tickets", err)
	}

	pageCount := (total + search.Limit - 1) / search.Limit
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	return &models.TicketPage{
		Tickets:    tickets,
		TotalCount: total,
		PageCount:  pageCount,
		Page:       search.Page,
	}, nil
}

// Advertised returns the featured list, served from cache when warm.
func (s *TicketService) Advertised(ctx context.Context) ([]models.Ticket, error) {
	var cached []models.Ticket
	if s.Cache.Get(ctx, cache.KeyAdvertisedTickets, &cached) {
		return cached, nil
	}

	tickets, err := s.DB.ListAdvertised(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load advertised tickets", err)
	}
	s.Cache.Set(ctx, cache.KeyAdvertisedTickets, tickets)
	return tickets, nil
}

func (s *TicketService) Latest(ctx context.Context, limit int) ([]models.Ticket, error) {
	if limit <= 0 {
		limit = defaultLatest
	}
	tickets, err := s.DB.ListLatest(ctx, limit)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load latest tickets", err)
	}
	return tickets, nil
}

func (s *TicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NotFound, "ticket not found")
		}
		return nil, errs.Wrap(errs.Internal, "failed to load ticket", err)
	}
	return ticket, nil
}

// VendorCatalog lists a vendor's own tickets; vendors cannot browse each
// other's catalogs through this endpoint.
func (s *TicketService) VendorCatalog(ctx context.Context, callerEmail, email string) ([]models.Ticket, error) {
	if callerEmail != email {
		return nil, errs.New(errs.Forbidden, "forbidden")
	}
	tickets, err := s.DB.ListByVendor(ctx, email)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load vendor tickets", err)
	}
	return tickets, nil
}

func (s *TicketService) ListAll(ctx context.Context) ([]models.Ticket, error) {
	tickets, err := s.DB.ListAll(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to list tickets", err)
	}
	return tickets, nil
}

// ownedMutable loads the ticket and enforces the vendor mutation rules:
// only the owner may touch it, and rejected tickets are frozen.
func (s *TicketService) ownedMutable(ctx context.Context, callerEmail, id string) (*models.Ticket, error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.VendorEmail != callerEmail {
		return nil, errs.New(errs.Forbidden, "not the owner of this ticket")
	}
	if ticket.VerificationStatus == models.VerificationRejected {
		return nil, errs.New(errs.InvalidState, "rejected tickets cannot be modified")
	}
	return ticket, nil
}

func (s *TicketService) Update(ctx context.Context, callerEmail, id string, update models.TicketUpdate) (*models.Ticket, error) {
	ticket, err := s.ownedMutable(ctx, callerEmail, id)
	if err != nil {
		return nil, err
	}

	ticket.Title = update.Title
	ticket.FromLocation = update.FromLocation
	ticket.ToLocation = update.ToLocation
	ticket.TransportType = update.TransportType
	ticket.Price = update.Price
	ticket.TicketQuantity = update.TicketQuantity
	ticket.DepartureDateTime = update.DepartureDateTime
	ticket.Perks = update.Perks
	ticket.UpdatedAt = time.Now()

	if err := s.DB.UpdateTicket(ctx, *ticket); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to update ticket", err)
	}
	s.Cache.Invalidate(ctx, cache.KeyAdvertisedTickets)
	return ticket, nil
}

func (s *TicketService) Delete(ctx context.Context, callerEmail, id string) error {
	if _, err := s.ownedMutable(ctx, callerEmail, id); err != nil {
		return err
	}
	if err := s.DB.DeleteTicket(ctx, id); err != nil {
		return errs.Wrap(errs.Internal, "failed to delete ticket", err)
	}
	s.Cache.Invalidate(ctx, cache.KeyAdvertisedTickets)
	return nil
}

// AdminDelete removes any ticket along with its bookings.
func (s *TicketService) AdminDelete(ctx context.Context, id string) error {
	if err := s.DB.DeleteTicketCascade(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.New(errs.NotFound, "ticket not found")
		}
		return errs.Wrap(errs.Internal, "failed to delete ticket", err)
	}
	s.Cache.Invalidate(ctx, cache.KeyAdvertisedTickets)
	return nil
}

// Moderate sets the verification status of a ticket.
func (s *TicketService) Moderate(ctx context.Context, id, status string) (*models.Ticket, error) {
	if !models.ValidVerificationStatus(status) {
		return nil, errs.New(errs.InvalidState, "unknown verification status: "+status)
	}

	if err := s.DB.SetVerificationStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NotFound, "ticket not found")
		}
		return nil, errs.Wrap(errs.Internal, "failed to moderate ticket", err)
	}

	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx, cache.KeyAdvertisedTickets)
	if err := s.Events.PublishTicketModerated(*ticket); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish moderation event: %v", err))
	}
	return ticket, nil
}

// SetAdvertised toggles the featured flag. Turning it on is refused once the
// cap is reached; the check and the flip are one statement, and a ticket
// that is already featured stays featured without consuming a slot.
func (s *TicketService) SetAdvertised(ctx context.Context, id string, advertised bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if !advertised {
		if err := s.DB.UnadvertiseTicket(ctx, id); err != nil {
			return errs.Wrap(errs.Internal, "failed to unadvertise ticket", err)
		}
		s.Cache.Invalidate(ctx, cache.KeyAdvertisedTickets)
		return nil
	}

	ok, err := s.DB.AdvertiseTicket(ctx, id)
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to advertise ticket", err)
	}
	if !ok {
		return errs.New(errs.InvalidState,
			fmt.Sprintf("advertised ticket limit of %d reached", models.MaxAdvertisedTickets))
	}
	s.Cache.Invalidate(ctx, cache.KeyAdvertisedTickets)
	return nil
}
