package model

// Header holds the MessageHeader values shared by every record of one report.
type Header struct {
	TimeDate string `json:"timedate"`
	Source   string `json:"source"`
	Version  string `json:"version"`
}

// Record is one flattened ATLS_ITEM row of an OASIS ATL APNode report.
// The *Posix fields are derived from their string counterparts at extraction
// time and are never set on their own.
type Record struct {
	TimeDate       string   `json:"timedate"`
	TimeDatePosix  float64  `json:"timedate_posix"`
	Source         string   `json:"source"`
	Version        string   `json:"version"`
	Name           string   `json:"name"`
	System         string   `json:"system"`
	TZ             string   `json:"tz"`
	Report         string   `json:"report"`
	APNodeName     string   `json:"apnode_name"`
	APNodeType     string   `json:"apnode_type"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	StartDateGMT   string   `json:"start_date_gmt"`
	StartDatePosix float64  `json:"start_date_posix"`
	EndDateGMT     string   `json:"end_date_gmt"`
	EndDatePosix   float64  `json:"end_date_posix"`
	CBNodeFlag     string   `json:"cb_node_flag"`
	MaxCBMW        *float64 `json:"max_cb_mw"`
}

// RecordColumns lists the persisted column names in insert order.
var RecordColumns = []string{
	"timedate",
	"timedate_posix",
	"source",
	"version",
	"name",
	"system",
	"tz",
	"report",
	"apnode_name",
	"apnode_type",
	"start_date",
	"end_date",
	"start_date_gmt",
	"start_date_posix",
	"end_date_gmt",
	"end_date_posix",
	"cb_node_flag",
	"max_cb_mw",
}

// RecordKey lists the columns forming the composite natural key.
var RecordKey = []string{
	"timedate_posix",
	"source",
	"name",
	"system",
	"tz",
	"report",
	"apnode_name",
	"apnode_type",
	"start_date_posix",
	"end_date_posix",
	"cb_node_flag",
}

// Values returns the record's column values in RecordColumns order.
// A nil MaxCBMW is returned as an untyped nil so drivers store NULL.
func (r *Record) Values() []any {
	var maxCB any
	if r.MaxCBMW != nil {
		maxCB = *r.MaxCBMW
	}
	return []any{
		r.TimeDate,
		r.TimeDatePosix,
		r.Source,
		r.Version,
		r.Name,
		r.System,
		r.TZ,
		r.Report,
		r.APNodeName,
		r.APNodeType,
		r.StartDate,
		r.EndDate,
		r.StartDateGMT,
		r.StartDatePosix,
		r.EndDateGMT,
		r.EndDatePosix,
		r.CBNodeFlag,
		maxCB,
	}
}
