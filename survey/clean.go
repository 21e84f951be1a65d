package survey

import (
	"unicode/utf8"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// AggregateRule decides whether a group label denotes an aggregate row.
type AggregateRule interface {
	IsAggregate(group string) bool
}

// SentinelRule matches exact aggregate labels such as "Total".
type SentinelRule struct {
	Groups []string
}

// IsAggregate implements AggregateRule.
func (r SentinelRule) IsAggregate(group string) bool {
	for _, g := range r.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// MinLengthRule treats every group label of at most MaxAggregateLen
// characters as an aggregate. The demographic export has no sentinel label,
// so real group names must be longer than MaxAggregateLen.
type MinLengthRule struct {
	MaxAggregateLen int
}

// IsAggregate implements AggregateRule.
func (r MinLengthRule) IsAggregate(group string) bool {
	return utf8.RuneCountInString(group) <= r.MaxAggregateLen
}

// AnyRule matches when any of its rules does.
type AnyRule []AggregateRule

// IsAggregate implements AggregateRule.
func (r AnyRule) IsAggregate(group string) bool {
	for _, rule := range r {
		if rule.IsAggregate(group) {
			return true
		}
	}
	return false
}

// IndustryRule drops the "Total" row plus any extra labels.
func IndustryRule(extra ...string) AggregateRule {
	return SentinelRule{Groups: append([]string{"Total"}, extra...)}
}

// DemographicRule drops labels of 7 characters or fewer plus any extra labels.
func DemographicRule(extra ...string) AggregateRule {
	rule := AnyRule{MinLengthRule{MaxAggregateLen: 7}}
	if len(extra) > 0 {
		rule = append(rule, SentinelRule{Groups: extra})
	}
	return rule
}

// CleanStats reports what Clean removed.
type CleanStats struct {
	Rows          int
	Kept          int
	Dropped       int
	DroppedGroups []string
}

// Clean drops aggregate rows and projects the rest to Records.
func Clean(t *Table, rule AggregateRule) ([]Record, CleanStats, error) {
	for _, spec := range commonColumns {
		if err := requireColumn(t, spec); err != nil {
			return nil, CleanStats{}, err
		}
	}

	groups := t.Text(ColGroup)
	topics := t.Text(ColTopicLabel)
	questions := t.Text(ColQuestionLabel)
	axes := t.Text(ColAxis)
	scores := t.Numeric(ColScore)
	indexed := t.Numeric(ColIndexedScore)
	fieldValues := t.Text(ColFieldValues)
	fieldIndex := t.Numeric(ColFieldValuesIndex)
	highGood := t.Text(ColHighScoreGood)

	stats := CleanStats{Rows: t.Rows()}
	seenDropped := map[string]bool{}
	records := make([]Record, 0, t.Rows())

	for i := 0; i < t.Rows(); i++ {
		if rule.IsAggregate(groups[i]) {
			stats.Dropped++
			if !seenDropped[groups[i]] {
				seenDropped[groups[i]] = true
				stats.DroppedGroups = append(stats.DroppedGroups, groups[i])
			}
			continue
		}
		rec := Record{
			Group:         groups[i],
			TopicLabel:    topics[i],
			QuestionLabel: questions[i],
			Score:         scores[i],
			IndexedScore:  indexed[i],
			Axis:          axes[i],
		}
		if fieldValues != nil {
			rec.FieldValues = fieldValues[i]
		}
		if fieldIndex != nil {
			rec.FieldValuesIndex = fieldIndex[i]
		}
		if highGood != nil {
			rec.HighScoreGood = highGood[i]
		}
		records = append(records, rec)
	}
	stats.Kept = len(records)

	log.GetLoggerWithName("survey.cleaner").Debug("Dropped aggregate rows",
		log.OperationKey, log.OperationClean,
		log.PathKey, t.Source,
		"dropped", stats.Dropped,
		"dropped_groups", stats.DroppedGroups,
	)
	return records, stats, nil
}

// Dataset identifies one of the two survey exports.
type Dataset int

const (
	Industry Dataset = iota
	Demographic
)

func (d Dataset) String() string {
	if d == Demographic {
		return "demographic"
	}
	return "industry"
}

// Schema returns the dataset's declared columns.
func (d Dataset) Schema() Schema {
	if d == Demographic {
		return DemographicSchema()
	}
	return IndustrySchema()
}

// Rule returns the dataset's aggregate-row rule with extra sentinel labels.
func (d Dataset) Rule(extra ...string) AggregateRule {
	if d == Demographic {
		return DemographicRule(extra...)
	}
	return IndustryRule(extra...)
}

// LoadClean loads path with the dataset's schema and cleans it.
func LoadClean(path string, d Dataset, opts LoadOptions, excludeGroups ...string) ([]Record, CleanStats, error) {
	opts.Schema = d.Schema()
	t, err := Load(path, opts)
	if err != nil {
		return nil, CleanStats{}, err
	}
	return Clean(t, d.Rule(excludeGroups...))
}

func requireColumn(t *Table, spec ColumnSpec) error {
	var ok bool
	if spec.Kind == Numeric {
		_, ok = t.numeric[spec.Name]
	} else {
		_, ok = t.text[spec.Name]
	}
	if !ok {
		return errors.NewParseError(t.Source, 1, spec.Name, "required "+spec.Kind.String()+" column missing")
	}
	return nil
}
