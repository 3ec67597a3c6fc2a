package entity

// Project is one row imported from a project spreadsheet.
type Project struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Manager      string `json:"manager"`
	Deadline     string `json:"deadline"`
	Priority     int16  `json:"priority"`
	InternCap    int16  `json:"intern_cap"`
}
