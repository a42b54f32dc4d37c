package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
	"github.com/google/uuid"
)

// CampaignRepository handles campaign file operations.
type CampaignRepository struct {
	root string
}

// NewCampaignRepository creates a new campaign repository.
func NewCampaignRepository(root string) *CampaignRepository {
	return &CampaignRepository{root: root}
}

func (cr *CampaignRepository) dir() string {
	return path.Join(cr.root, "campaigns")
}

func (cr *CampaignRepository) filePath(id string) string {
	return path.Join(cr.dir(), id+".json")
}

func (cr *CampaignRepository) List(ctx context.Context, owner string) ([]*models.Campaign, error) {
	jsonFiles, err := fs.Glob(os.DirFS(cr.dir()), "*.json")
	if err != nil || len(jsonFiles) == 0 {
		return []*models.Campaign{}, nil
	}

	campaigns := make([]*models.Campaign, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		campaign, err := cr.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, fmt.Errorf("failed to load campaign from %s: %w", file, err)
		}

		if owner != "" && campaign.Owner != owner {
			continue
		}

		campaigns = append(campaigns, campaign)
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})

	return campaigns, nil
}

func (cr *CampaignRepository) GetByID(_ context.Context, id string) (*models.Campaign, error) {
	data, err := os.ReadFile(cr.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrCampaignNotFound
		}

		return nil, fmt.Errorf("failed to read campaign file: %w", err)
	}

	var campaign models.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		return nil, fmt.Errorf("failed to decode campaign %s: %w", id, err)
	}

	return &campaign, nil
}

func (cr *CampaignRepository) Save(_ context.Context, campaign *models.Campaign) error {
	now := time.Now().UTC()

	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}

	campaign.UpdatedAt = now

	if campaign.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate campaign ID: %w", err)
		}

		campaign.ID = id.String()
	}

	if campaign.Status == "" {
		campaign.Status = models.CampaignStatusDraft
	}

	if err := os.MkdirAll(cr.dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create campaigns directory: %w", err)
	}

	data, err := json.MarshalIndent(campaign, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode campaign: %w", err)
	}

	if err := os.WriteFile(cr.filePath(campaign.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write campaign file: %w", err)
	}

	return nil
}

func (cr *CampaignRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(cr.filePath(id))
	if os.IsNotExist(err) {
		return persistence.ErrCampaignNotFound
	}

	return err
}
