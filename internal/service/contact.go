package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/internal/enrichment"
	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// ContactService handles contact operations.
type ContactService struct {
	store    store.ContactStore
	provider enrichment.Provider
	logger   *logger.Logger
}

// NewContactService creates a contact service. provider may be nil when
// LinkedIn enrichment is not configured.
func NewContactService(st store.ContactStore, provider enrichment.Provider, log *logger.Logger) *ContactService {
	return &ContactService{store: st, provider: provider, logger: log}
}

// Create stores a new contact for the owner.
func (s *ContactService) Create(ctx context.Context, ownerID string, req *model.CreateContactRequest) (*model.Contact, error) {
	contact, err := s.store.CreateContact(ctx, ownerID, *req)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	s.logger.Info("contact created", zap.Int64("contact_id", contact.ID), zap.String("owner_id", ownerID))
	return contact, nil
}

// GetByID returns the contact when the owner can see it.
func (s *ContactService) GetByID(ctx context.Context, ownerID string, contactID int64) (*model.Contact, error) {
	contact, err := s.store.GetContact(ctx, contactID, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrContactNotFound
	}
	return contact, err
}

// List returns the owner's contacts.
func (s *ContactService) List(ctx context.Context, ownerID string) (*model.ListContactsResponse, error) {
	contacts, err := s.store.ListContacts(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return &model.ListContactsResponse{Contacts: contacts, Total: len(contacts)}, nil
}

// LinkedInPreview is a fetched profile plus the owner's contact already
// imported from it, if any.
type LinkedInPreview struct {
	*enrichment.Result
	ExistingContact *model.ContactSummary `json:"existingContact"`
}

func (s *ContactService) fetch(ctx context.Context, linkedinURL string) (*enrichment.Result, error) {
	if s.provider == nil {
		return nil, enrichment.ErrNotConfigured
	}
	return s.provider.FetchProfile(ctx, linkedinURL)
}

func (s *ContactService) findImported(ctx context.Context, ownerID, providerID string) (*model.Contact, error) {
	if providerID == "" {
		return nil, nil
	}
	contact, err := s.store.FindContactByLinkedInProviderID(ctx, providerID, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up contact by LinkedIn id: %w", err)
	}
	return contact, nil
}

// PreviewLinkedIn fetches a profile without saving anything.
func (s *ContactService) PreviewLinkedIn(ctx context.Context, ownerID, linkedinURL string) (*LinkedInPreview, error) {
	res, err := s.fetch(ctx, linkedinURL)
	if err != nil {
		return nil, err
	}

	preview := &LinkedInPreview{Result: res}
	existing, err := s.findImported(ctx, ownerID, res.Profile.ProviderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		preview.ExistingContact = existing.Summary()
	}
	return preview, nil
}

// ImportFromLinkedIn fetches a profile and stores it as a contact. When the
// owner already imported that profile, the existing contact is returned
// with false.
func (s *ContactService) ImportFromLinkedIn(ctx context.Context, ownerID, linkedinURL string) (*model.Contact, bool, error) {
	res, err := s.fetch(ctx, linkedinURL)
	if err != nil {
		return nil, false, err
	}

	providerID := res.Profile.ProviderID
	existing, err := s.findImported(ctx, ownerID, providerID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.logger.Info("LinkedIn profile already imported",
			zap.Int64("contact_id", existing.ID),
			zap.String("owner_id", ownerID),
		)
		return existing, false, nil
	}

	profileURL := res.Profile.LinkedInURL
	req := &model.CreateContactRequest{
		FirstName:          res.Profile.FirstName,
		LastName:           res.Profile.LastName,
		JobTitle:           res.Profile.CurrentJobTitle,
		LinkedInProviderID: &providerID,
		LinkedInURL:        &profileURL,
	}
	if res.Company != nil {
		name := res.Company.Name
		req.Company = &name
	}

	contact, err := s.Create(ctx, ownerID, req)
	if err != nil {
		return nil, false, err
	}
	return contact, true, nil
}
