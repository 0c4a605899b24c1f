package timesheet

const (
	// ModeFull counts a week that spans a month boundary in full in both
	// months it touches.
	ModeFull = "full"
	// ModeProrated counts only the days of a week that fall inside the month.
	ModeProrated = "prorated"

	DaysPerWeek = 7
	MaxDayHours = 24
)

const (
	FieldRegular  = "regular"
	FieldOvertime = "overtime"
	FieldSick     = "sick"
	FieldPaid     = "paid"
	FieldUnpaid   = "unpaid"
	FieldTotal    = "total"
)

var weekdayNames = [DaysPerWeek]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
