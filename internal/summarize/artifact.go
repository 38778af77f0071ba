package summarize

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Tier classifies the requested summary length.
type Tier string

// Summary length tiers.
const (
	TierShort    Tier = "short"
	TierStandard Tier = "standard"
	TierLong     Tier = "long"
)

// StandardMaxSize is the max_size, in words, of a standard summary.
const StandardMaxSize = 1000

// TierFor returns the tier of a summary capped at maxSize words.
func TierFor(maxSize int) Tier {
	switch {
	case maxSize == StandardMaxSize:
		return TierStandard
	case maxSize < StandardMaxSize:
		return TierShort
	default:
		return TierLong
	}
}

// MultiIssue names artifacts that cover more than one issue.
const MultiIssue = "multi"

var (
	isoDateSuffix   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}$`)
	modelSeparators = strings.NewReplacer("-", "", "_", "", ".", "", ":", "")
)

// EscapeModelName makes model safe as a single path segment by dropping
// '-', '_', '.' and ':'. A trailing ISO date is kept as written, so
// "gpt-4o-2024-08-06" becomes "gpt4o2024-08-06".
func EscapeModelName(model string) string {
	head, date := model, ""
	if loc := isoDateSuffix.FindStringIndex(model); loc != nil {
		head, date = model[:loc[0]], model[loc[0]:]
	}
	return modelSeparators.Replace(head) + date
}

// ArtifactID identifies one persisted summary.
type ArtifactID struct {
	Tier   Tier
	Model  string // Raw model name.
	Issue  string // Issue name or MultiIssue.
	Source string // Input file name without directory or extension.
}

// NewArtifactID derives the identity of the summary of sourcePath.
func NewArtifactID(maxSize int, model string, issues []string, sourcePath string) (ArtifactID, error) {
	if len(issues) == 0 {
		return ArtifactID{}, fmt.Errorf("at least one issue is required")
	}
	issue := issues[0]
	if len(issues) > 1 {
		issue = MultiIssue
	}
	base := filepath.Base(sourcePath)
	return ArtifactID{
		Tier:   TierFor(maxSize),
		Model:  model,
		Issue:  issue,
		Source: strings.TrimSuffix(base, filepath.Ext(base)),
	}, nil
}

// Name returns the artifact stem shared by the summary and its log.
func (a ArtifactID) Name() string {
	return fmt.Sprintf("summary_%s__%s__%s__%s", a.Tier, EscapeModelName(a.Model), a.Issue, a.Source)
}

// SummaryFile returns the summary file name.
func (a ArtifactID) SummaryFile() string { return a.Name() + ".txt" }

// LogFile returns the log file name.
func (a ArtifactID) LogFile() string { return "log_" + a.Name() + ".json" }

func (a ArtifactID) String() string { return a.Name() }
