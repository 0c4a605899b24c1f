package billing

const (
	EmploymentSubcontract = "subcontract"
	EmploymentFulltime    = "fulltime"
)
