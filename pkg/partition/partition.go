package partition

type Kind string

const (
	Study   Kind = "study"
	Sleep   Kind = "sleep"
	Summary Kind = "summary"
)

// Kinds lists the month-scoped partition kinds in fetch order.
var Kinds = []Kind{Study, Sleep, Summary}

const BucketListFile = "bucketList.json"

// HoursMap maps an ISO date to a number of hours.
type HoursMap map[string]float64

// SummaryMap maps an ISO date to free text.
type SummaryMap map[string]string

type BucketItem struct {
	Id        int    `json:"id"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

// MonthData is everything fetched for one month. Maps are never nil.
type MonthData struct {
	Study   HoursMap
	Sleep   HoursMap
	Summary SummaryMap
	// Unavailable lists the kinds that fell back to an empty result.
	Unavailable []Kind
}

func (m MonthData) Entries() int {
	return len(m.Study) + len(m.Sleep) + len(m.Summary)
}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
