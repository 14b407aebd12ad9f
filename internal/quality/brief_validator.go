package quality

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trendhijack/trendhijack-back/internal/domain"
)

var ErrIncompleteBrief = errors.New("director brief failed completeness checks")

// BriefValidator checks that an analysis collaborator returned a usable
// Director Brief. The brief is otherwise opaque to the pipeline, so
// presence is the only contract enforced here.
type BriefValidator struct{}

func NewBriefValidator() *BriefValidator {
	return &BriefValidator{}
}

func (v *BriefValidator) Validate(brief domain.DirectorBrief) error {
	required := []struct {
		field string
		value string
	}{
		{"hook", brief.Hook},
		{"vibe", brief.Vibe},
		{"energy", brief.Energy},
		{"emotion", brief.Emotion},
		{"pacing", brief.Pacing},
		{"setting", brief.Setting},
		{"brand_safety", brief.BrandSafety},
		{"hook_score", brief.HookScore},
	}
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			return fmt.Errorf("%w: missing %s", ErrIncompleteBrief, item.field)
		}
	}

	if len(brief.KeyMoments) == 0 {
		return fmt.Errorf("%w: missing key_moments", ErrIncompleteBrief)
	}
	for index, moment := range brief.KeyMoments {
		if strings.TrimSpace(moment.Description) == "" {
			return fmt.Errorf("%w: key_moments[%d] has no description", ErrIncompleteBrief, index)
		}
	}

	if len(brief.VariationBriefs) == 0 {
		return fmt.Errorf("%w: missing variation_briefs", ErrIncompleteBrief)
	}

	return nil
}
