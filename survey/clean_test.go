package survey

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

const demographicCSV = "Group;Score;Score (Indekseret score);Question Label;Topic Label;Akse\n" +
	"Kvinder 18-34;3;50;Q1;Trivsel;A\n" +
	"Mænd 35-54;4;75;Q1;Trivsel;A\n" +
	"I alt;3,5;62,5;Q1;Trivsel;A\n" +
	"Kvinder;3,5;62,5;Q1;Trivsel;A\n" +
	"Mænd 55+;4;70;Q1;Trivsel;A\n"

func TestCleanIndustryDropsTotal(t *testing.T) {
	table, err := Read(strings.NewReader(industryCSV), "branche.csv", LoadOptions{Schema: IndustrySchema()})
	require.NoError(t, err)

	records, stats, err := Clean(table, Industry.Rule())
	require.NoError(t, err)

	assert.Len(t, records, 3)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, []string{"Total"}, stats.DroppedGroups)
	for _, r := range records {
		assert.NotEqual(t, "Total", r.Group)
	}

	first := records[0]
	assert.Equal(t, "Bygge og anlæg", first.Group)
	assert.Equal(t, "Ledelse", first.TopicLabel)
	assert.Equal(t, "Q1", first.QuestionLabel)
	assert.Equal(t, 3.5, first.Score)
	assert.Equal(t, 62.5, first.IndexedScore)
	assert.Equal(t, "Arbejde", first.Axis)
	assert.Equal(t, "Enig", first.FieldValues)
	assert.Equal(t, 1.0, first.FieldValuesIndex)
	assert.Equal(t, "Ja", first.HighScoreGood)
}

func TestCleanDemographicLengthHeuristic(t *testing.T) {
	table, err := Read(strings.NewReader(demographicCSV), "ka.csv", LoadOptions{Schema: DemographicSchema()})
	require.NoError(t, err)

	records, stats, err := Clean(table, Demographic.Rule())
	require.NoError(t, err)

	groups := make([]string, len(records))
	for i, r := range records {
		groups[i] = r.Group
		assert.Greater(t, utf8.RuneCountInString(r.Group), 7)
	}
	// "Mænd 55+" is 8 runes but 9 bytes; "Kvinder" is exactly 7 runes.
	assert.Equal(t, []string{"Kvinder 18-34", "Mænd 35-54", "Mænd 55+"}, groups)
	assert.Equal(t, 2, stats.Dropped)
	assert.Equal(t, "", records[0].FieldValues)
}

func TestCleanExtraSentinels(t *testing.T) {
	table, err := Read(strings.NewReader(demographicCSV), "ka.csv", LoadOptions{Schema: DemographicSchema()})
	require.NoError(t, err)

	records, _, err := Clean(table, Demographic.Rule("Mænd 55+"))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	rule := IndustryRule("Uoplyst")
	assert.True(t, rule.IsAggregate("Total"))
	assert.True(t, rule.IsAggregate("Uoplyst"))
	assert.False(t, rule.IsAggregate("Handel"))
}

func TestCleanRequiresColumns(t *testing.T) {
	table, err := Read(strings.NewReader("Group;Score\nLang gruppe;1\n"), "x.csv", LoadOptions{})
	require.NoError(t, err)

	_, _, err = Clean(table, Industry.Rule())
	var parseErr *errors.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestLoadClean(t *testing.T) {
	path := writeFile(t, "ka.csv", demographicCSV)
	records, stats, err := LoadClean(path, Demographic, LoadOptions{})
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, "demographic", Demographic.String())
}
