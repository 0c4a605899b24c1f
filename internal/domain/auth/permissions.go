package auth

const (
	RoleAdmin     = "admin"
	RoleFinance   = "finance"
	RoleRecruiter = "recruiter"
	RoleCandidate = "candidate"
)

const (
	PermBillingRead       = "billing.read"
	PermBillingWrite      = "billing.write"
	PermTimesheetsRead    = "timesheets.read"
	PermTimesheetsWrite   = "timesheets.write"
	PermTimesheetsApprove = "timesheets.approve"
	PermInvoicesRead      = "invoices.read"
	PermInvoicesWrite     = "invoices.write"
	PermCompanyRead       = "company.read"
	PermCompanyWrite      = "company.write"
	PermReportsRead       = "reports.read"
	PermAuditRead         = "audit.read"
)

var DefaultPermissions = []string{
	PermBillingRead,
	PermBillingWrite,
	PermTimesheetsRead,
	PermTimesheetsWrite,
	PermTimesheetsApprove,
	PermInvoicesRead,
	PermInvoicesWrite,
	PermCompanyRead,
	PermCompanyWrite,
	PermReportsRead,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleCandidate: {
		PermTimesheetsRead,
		PermTimesheetsWrite,
	},
	RoleRecruiter: {
		PermBillingRead,
		PermTimesheetsRead,
		PermTimesheetsWrite,
		PermTimesheetsApprove,
		PermCompanyRead,
		PermReportsRead,
	},
	RoleFinance: {
		PermBillingRead,
		PermBillingWrite,
		PermTimesheetsRead,
		PermTimesheetsApprove,
		PermInvoicesRead,
		PermInvoicesWrite,
		PermCompanyRead,
		PermCompanyWrite,
		PermReportsRead,
	},
	RoleAdmin: DefaultPermissions,
}
