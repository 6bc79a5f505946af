// Package activity turns raw job log entries into the categorized feed the
// dashboard renders. Classification is rule based: the first rule whose
// substrings match wins, with error-level entries short-circuiting to the
// error category.
package activity

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enrichment-api/internal/model"
)

// Category is the dashboard-facing bucket for a feed entry.
type Category string

const (
	CategoryCrawl      Category = "crawl"
	CategoryChunk      Category = "chunk"
	CategoryEmbed      Category = "embed"
	CategoryExtract    Category = "extract"
	CategoryEscalation Category = "escalation"
	CategorySystem     Category = "system"
	CategoryError      Category = "error"
)

// Rule maps message substrings to a category. Any match counts.
type Rule struct {
	Category Category `yaml:"category"`
	Contains []string `yaml:"contains"`
}

// Entry is one classified activity feed item.
type Entry struct {
	ID        int64          `json:"id"`
	JobID     string         `json:"job_id"`
	Category  Category       `json:"category"`
	Level     model.LogLevel `json:"level"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// defaultRules cover the messages the pipeline runner emits. Operators can
// extend them via a YAML rules file without a redeploy.
var defaultRules = []Rule{
	{Category: CategoryCrawl, Contains: []string{"crawl", "fetch", "page", "robots"}},
	{Category: CategoryChunk, Contains: []string{"chunk", "split", "token count"}},
	{Category: CategoryEmbed, Contains: []string{"embed", "vector", "upsert"}},
	{Category: CategoryEscalation, Contains: []string{"escalat", "tier 2", "tier 3", "fallback model"}},
	{Category: CategoryExtract, Contains: []string{"extract", "fact", "prompt", "llm"}},
	{Category: CategorySystem, Contains: []string{"queued", "cancelled", "re-queued", "started", "completed"}},
}

// Classifier assigns categories to job log entries.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from the default rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules}
}

// NewClassifierFromFile loads operator rule overrides from a YAML file and
// prepends them to the defaults, so overrides win on conflicting messages.
// An empty path returns the default classifier.
func NewClassifierFromFile(path string) (*Classifier, error) {
	if path == "" {
		return NewClassifier(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "activity: read rules file %s", path)
	}

	var overrides []Rule
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, eris.Wrapf(err, "activity: parse rules file %s", path)
	}
	for i, r := range overrides {
		if r.Category == "" || len(r.Contains) == 0 {
			return nil, eris.Errorf("activity: rule %d in %s needs a category and at least one substring", i, path)
		}
	}

	zap.L().Info("loaded activity rule overrides",
		zap.String("path", path),
		zap.Int("rules", len(overrides)))

	return &Classifier{rules: append(overrides, defaultRules...)}, nil
}

// Classify buckets a single log entry. Error-level entries always land in
// the error category regardless of message content.
func (c *Classifier) Classify(log model.JobLog) Category {
	if log.Level == model.LogLevelError {
		return CategoryError
	}

	msg := strings.ToLower(log.Message)
	for _, rule := range c.rules {
		for _, sub := range rule.Contains {
			if strings.Contains(msg, strings.ToLower(sub)) {
				return rule.Category
			}
		}
	}
	return CategorySystem
}

// Feed classifies a log stream into feed entries, preserving order.
func (c *Classifier) Feed(logs []model.JobLog) []Entry {
	entries := make([]Entry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, Entry{
			ID:        l.ID,
			JobID:     l.JobID,
			Category:  c.Classify(l),
			Level:     l.Level,
			Message:   l.Message,
			Details:   l.Details,
			CreatedAt: l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return entries
}
