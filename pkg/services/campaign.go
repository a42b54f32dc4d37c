package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
)

// Campaign is the service for campaign management.
type Campaign struct {
	persistence persistence.Persistence
}

// NewCampaign creates a new campaign service.
func NewCampaign(p persistence.Persistence) *Campaign {
	return &Campaign{persistence: p}
}

// List returns campaigns, optionally filtered by owner.
func (s *Campaign) List(ctx context.Context, owner string) ([]*models.Campaign, error) {
	return s.persistence.Campaigns().List(ctx, owner)
}

// FetchByID returns one campaign.
func (s *Campaign) FetchByID(ctx context.Context, id string) (*models.Campaign, error) {
	return s.persistence.Campaigns().GetByID(ctx, id)
}

// Create persists a new campaign.
func (s *Campaign) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if strings.TrimSpace(campaign.Owner) == "" {
		return nil, ErrEmptyOwnerID
	}

	if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to save campaign: %w", err)
	}

	return campaign, nil
}

// Update persists a mutated campaign.
func (s *Campaign) Update(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to save campaign: %w", err)
	}

	return campaign, nil
}

// Delete removes a campaign. Patterns referencing it keep their dangling id;
// the reference is advisory.
func (s *Campaign) Delete(ctx context.Context, id string) error {
	return s.persistence.Campaigns().Delete(ctx, id)
}
