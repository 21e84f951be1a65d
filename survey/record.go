package survey

// Record is one cleaned survey row: a single question answered by a group.
type Record struct {
	Group         string
	TopicLabel    string
	QuestionLabel string
	Score         float64
	IndexedScore  float64
	Axis          string

	// Industry export only; zero values for the demographic export.
	FieldValues      string
	FieldValuesIndex float64
	HighScoreGood    string
}
