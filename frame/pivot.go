package frame

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/surveyboost/pkg/log"
	"github.com/YuminosukeSato/surveyboost/survey"
)

// LongRow is one (group, topic, value) observation.
type LongRow struct {
	Group string
	Topic string
	Value float64
}

// Aggregate reduces the values of one (group, topic) cell.
type Aggregate func(values []float64) float64

// MeanAggregate is the arithmetic mean.
func MeanAggregate(values []float64) float64 {
	return stat.Mean(values, nil)
}

// FromRecords maps cleaned survey records to long rows of indexed scores.
func FromRecords(records []survey.Record) []LongRow {
	rows := make([]LongRow, len(records))
	for i, r := range records {
		rows[i] = LongRow{Group: r.Group, Topic: r.TopicLabel, Value: r.IndexedScore}
	}
	return rows
}

// Pivot builds the wide table: groups in first-seen order, topics sorted,
// each cell the aggregate of its values. Rows with a NaN value are skipped.
// Cells with no values are NaN; call Complete or ResolveMissing before modelling.
func Pivot(rows []LongRow, agg Aggregate) (*WideTable, error) {
	if agg == nil {
		agg = MeanAggregate
	}

	type key struct{ group, topic string }
	cells := make(map[key][]float64)
	var groups []string
	seenGroup := map[string]bool{}
	topicSet := map[string]bool{}

	for _, r := range rows {
		if math.IsNaN(r.Value) {
			continue
		}
		if !seenGroup[r.Group] {
			seenGroup[r.Group] = true
			groups = append(groups, r.Group)
		}
		topicSet[r.Topic] = true
		k := key{r.Group, r.Topic}
		cells[k] = append(cells[k], r.Value)
	}

	topics := make([]string, 0, len(topicSet))
	for t := range topicSet {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	data := mat.NewDense(max(len(groups), 1), max(len(topics), 1), nil)
	for i, g := range groups {
		for j, t := range topics {
			values, ok := cells[key{g, t}]
			if !ok {
				data.Set(i, j, math.NaN())
				continue
			}
			data.Set(i, j, agg(values))
		}
	}

	log.GetLoggerWithName("frame.pivot").Debug("Pivoted long table",
		log.OperationKey, log.OperationPivot,
		log.RowsKey, len(rows),
		log.GroupsKey, len(groups),
		log.TopicsKey, len(topics),
	)
	return NewWideTable(groups, topics, trim(data, len(groups), len(topics)))
}

// PivotRecords pivots cleaned records by mean indexed score.
func PivotRecords(records []survey.Record) (*WideTable, error) {
	return Pivot(FromRecords(records), MeanAggregate)
}
