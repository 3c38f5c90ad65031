package models

// ChartKind is the chart a finance query asks for.
type ChartKind string

// GroupKind is the grouping a finance query asks for.
type GroupKind string

const (
	ChartBar  ChartKind = "bar"
	ChartPie  ChartKind = "pie"
	ChartLine ChartKind = "line"
	ChartNone ChartKind = "none"

	GroupCategory GroupKind = "category"
	GroupHour     GroupKind = "hour"
	GroupDay      GroupKind = "day"
	GroupMonth    GroupKind = "month"
	GroupAuto     GroupKind = "auto"
)

// Intent is the routed interpretation of a free-text finance request.
type Intent struct {
	Chart ChartKind `json:"chart"`
	Group GroupKind `json:"group"`
}
