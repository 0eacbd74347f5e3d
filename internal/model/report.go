package model

// DailyCount is the number of bookings starting on Day (YYYY-MM-DD).
type DailyCount struct {
	Day   string
	Count int
}

// RoomUsage counts bookings per room.
type RoomUsage struct {
	RoomID   uint64
	RoomName string
	Count    int
}

// ReportSummary is the admin dashboard.  PeakHour is the most common local
// start hour and is nil when there are no bookings in range.
type ReportSummary struct {
	PendingCount  int
	ApprovedCount int
	TotalUsers    int
	PeakHour      *int
	Daily         []DailyCount
	TopRooms      []RoomUsage
}
