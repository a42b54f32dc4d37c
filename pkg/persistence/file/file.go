// Package file provides file-based persistence for campaigns, patterns, and
// test results. Intended for development and tests.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/caravel-hq/caravel/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root         string
	campaignRepo *CampaignRepository
	patternRepo  *PatternRepository
	resultRepo   *TestResultRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)
	patternRepo := NewPatternRepository(cleanRoot)

	return &Persistence{
		root:         cleanRoot,
		campaignRepo: NewCampaignRepository(cleanRoot),
		patternRepo:  patternRepo,
		resultRepo:   NewTestResultRepository(cleanRoot, patternRepo),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Campaigns() persistence.CampaignRepository {
	return fp.campaignRepo
}

func (fp *Persistence) Patterns() persistence.PatternRepository {
	return fp.patternRepo
}

func (fp *Persistence) TestResults() persistence.TestResultRepository {
	return fp.resultRepo
}
