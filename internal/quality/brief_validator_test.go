package quality

import (
	"errors"
	"strings"
	"testing"

	"github.com/trendhijack/trendhijack-back/internal/domain"
)

func completeBrief() domain.DirectorBrief {
	return domain.DirectorBrief{
		Hook:        "Fast opening with a bold claim.",
		Vibe:        "Clean Tech",
		Energy:      "high",
		Emotion:     "curiosity",
		Pacing:      "fast",
		Setting:     "modern urban workspace",
		KeyMoments:  []domain.KeyMoment{{Time: "0:04", Description: "Feature reveal with reaction"}},
		BrandSafety: "safe",
		HookScore:   "7",
		VariationBriefs: []string{
			"Product POV with snappy captions",
			"Before/after transformation cut",
		},
	}
}

func TestValidateAcceptsCompleteBrief(t *testing.T) {
	if err := NewBriefValidator().Validate(completeBrief()); err != nil {
		t.Fatalf("expected complete brief to pass, got %v", err)
	}
}

func TestValidateRejectsMissingScalarFields(t *testing.T) {
	validator := NewBriefValidator()

	brief := completeBrief()
	brief.Hook = "   "
	err := validator.Validate(brief)
	if !errors.Is(err, ErrIncompleteBrief) {
		t.Fatalf("expected incomplete brief error, got %v", err)
	}
	if !strings.Contains(err.Error(), "hook") {
		t.Fatalf("expected error to name the missing field, got %v", err)
	}
}

func TestValidateRejectsEmptyCollections(t *testing.T) {
	validator := NewBriefValidator()

	brief := completeBrief()
	brief.KeyMoments = nil
	if err := validator.Validate(brief); !errors.Is(err, ErrIncompleteBrief) {
		t.Fatalf("expected missing key_moments to fail, got %v", err)
	}

	brief = completeBrief()
	brief.VariationBriefs = []string{}
	if err := validator.Validate(brief); !errors.Is(err, ErrIncompleteBrief) {
		t.Fatalf("expected missing variation_briefs to fail, got %v", err)
	}
}

func TestValidateRejectsBlankKeyMomentDescription(t *testing.T) {
	brief := completeBrief()
	brief.KeyMoments = append(brief.KeyMoments, domain.KeyMoment{Time: "0:08", Description: ""})

	if err := NewBriefValidator().Validate(brief); !errors.Is(err, ErrIncompleteBrief) {
		t.Fatalf("expected blank key moment to fail, got %v", err)
	}
}
