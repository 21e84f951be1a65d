package survey

// Source column names.
const (
	ColGroup            = "Group"
	ColScore            = "Score"
	ColIndexedScore     = "Score (Indekseret score)"
	ColQuestionLabel    = "Question Label"
	ColTopicLabel       = "Topic Label"
	ColAxis             = "Akse"
	ColFieldValues      = "Field Values"
	ColFieldValuesIndex = "Field Values Index"
	ColHighScoreGood    = "Hoej Score Godt"
)

// Kind is the declared type of a column.
type Kind int

const (
	Text Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "text"
}

// ColumnSpec declares one expected column.
type ColumnSpec struct {
	Name string
	Kind Kind
}

// Schema lists the columns a source must contain. Columns present in the
// file but not declared are loaded as text.
type Schema struct {
	Name    string
	Columns []ColumnSpec
}

// Kind returns the declared kind of column name, Text when undeclared.
func (s Schema) Kind(name string) Kind {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Kind
		}
	}
	return Text
}

var commonColumns = []ColumnSpec{
	{Name: ColGroup, Kind: Text},
	{Name: ColScore, Kind: Numeric},
	{Name: ColIndexedScore, Kind: Numeric},
	{Name: ColQuestionLabel, Kind: Text},
	{Name: ColTopicLabel, Kind: Text},
	{Name: ColAxis, Kind: Text},
}

// IndustrySchema is the industry-segmented export.
func IndustrySchema() Schema {
	cols := append([]ColumnSpec(nil), commonColumns...)
	cols = append(cols,
		ColumnSpec{Name: ColFieldValues, Kind: Text},
		ColumnSpec{Name: ColFieldValuesIndex, Kind: Numeric},
		ColumnSpec{Name: ColHighScoreGood, Kind: Text},
	)
	return Schema{Name: "industry", Columns: cols}
}

// DemographicSchema is the gender/age-segmented export.
func DemographicSchema() Schema {
	return Schema{Name: "demographic", Columns: append([]ColumnSpec(nil), commonColumns...)}
}
