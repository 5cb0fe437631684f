package simulator

import "time"

// Config holds configuration for the attendance simulation.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumEmployees int           // Number of synthetic employees
	NumDays      int           // Number of civil days to cover, ending yesterday
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	Strategy     string        // Merge strategy used for the /sync pass
	OutputFile   string        // Output file for generated punches
	LogFile      string        // Log file for simulation output
	Verbose      bool          // Enable verbose logging
}

// Punch is a single device punch on the wire.
type Punch struct {
	EmployeeID string `json:"employee_id"`
	Timestamp  string `json:"timestamp"`
}

// AckResponse represents the response from punch submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// SummaryResponse mirrors the batch summary returned by /sync.
type SummaryResponse struct {
	BatchID string `json:"batch_id"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// AwardResponse mirrors a single shift award in a record.
type AwardResponse struct {
	ShiftID   string  `json:"shift_id"`
	ShiftName string  `json:"shift_name"`
	CheckIn   string  `json:"check_in"`
	Points    float64 `json:"points"`
}

// RecordResponse mirrors a scored day record returned by /records.
type RecordResponse struct {
	EmployeeID  string          `json:"employee_id"`
	Date        string          `json:"date"`
	CheckIns    []string        `json:"check_ins"`
	Awards      []AwardResponse `json:"awards"`
	TotalPoints float64         `json:"total_points"`
}

// Stats holds simulation statistics.
type Stats struct {
	PunchesGenerated  int
	PunchesSubmitted  int
	PunchesSuccessful int
	PunchesDuplicate  int
	PunchesFailed     int
	BatchCreated      int
	BatchUpdated      int
	RecordsVerified   int
	RecordsMismatched int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
