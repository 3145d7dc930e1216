package analytics

import "time"

// Range is an analytics window such as "30d".
type Range string

const (
	Range7d  Range = "7d"
	Range30d Range = "30d"
	Range90d Range = "90d"
)

func (r Range) Days() (int, bool) {
	switch r {
	case Range7d:
		return 7, true
	case Range30d:
		return 30, true
	case Range90d:
		return 90, true
	}
	return 0, false
}

type Overview struct {
	ClientID   int               `json:"clientId"`
	Range      Range             `json:"range"`
	From       time.Time         `json:"from"`
	To         time.Time         `json:"to"`
	Totals     Totals            `json:"overview"`
	Engagement []Day             `json:"engagement"`
	Sequences  []SequenceSummary `json:"sequences"`
	Segments   []SegmentSummary  `json:"segments"`
}

// Totals are the headline numbers of an overview. Rates are percentages of
// the client's prospects, rounded to one decimal.
type Totals struct {
	TotalProspects int     `json:"totalProspects"`
	NewProspects   int     `json:"newProspects"`
	Activities     int     `json:"activities"`
	EmailsOpened   int     `json:"emailsOpened"`
	EmailsClicked  int     `json:"emailsClicked"`
	OpenRate       float64 `json:"openRate"`
	ClickRate      float64 `json:"clickRate"`
	ConversionRate float64 `json:"conversionRate"`
}

// Day is one point of the engagement series.
type Day struct {
	Date   string `json:"date"`
	Opens  int    `json:"opens"`
	Clicks int    `json:"clicks"`
	Visits int    `json:"visits"`
	Forms  int    `json:"forms"`
}

type SequenceSummary struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Prospects int     `json:"prospects"`
	OpenRate  float64 `json:"openRate"`
	ClickRate float64 `json:"clickRate"`
}

type SegmentSummary struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Prospects int     `json:"prospects"`
	AvgScore  float64 `json:"avgScore"`
}

type SequencePerformance struct {
	SequenceID         int               `json:"sequenceId"`
	TotalProspects     int               `json:"totalProspects"`
	ActiveProspects    int               `json:"activeProspects"`
	CompletedProspects int               `json:"completedProspects"`
	Metrics            PerformanceRates  `json:"metrics"`
	Steps              []StepPerformance `json:"stepPerformance"`
}

type PerformanceRates struct {
	OpenRate       float64 `json:"openRate"`
	ClickRate      float64 `json:"clickRate"`
	ConversionRate float64 `json:"conversionRate"`
}

type StepPerformance struct {
	Step        int    `json:"step"`
	StepID      int    `json:"stepId"`
	Description string `json:"description"`
	Reached     int    `json:"reached"`
	Opened      int    `json:"opened"`
	Clicked     int    `json:"clicked"`
}

// Card is one of the dashboard headline metrics.
type Card struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Value    string `json:"value"`
	Subtitle string `json:"subtitle"`
}
