package company

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var (
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

func normalizeClient(c Client) (Client, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.GSTIN = strings.ToUpper(strings.TrimSpace(c.GSTIN))
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" {
		return c, invalid("name is required")
	}
	if c.GSTIN != "" && !gstinPattern.MatchString(c.GSTIN) {
		return c, invalid("gstin is malformed")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return c, invalid("email is malformed")
		}
	}
	return c, nil
}

func normalizeEndUser(u EndUser) (EndUser, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Address = strings.TrimSpace(u.Address)
	if u.ClientCompanyID == "" {
		return u, invalid("clientCompanyId is required")
	}
	if u.Name == "" {
		return u, invalid("name is required")
	}
	return u, nil
}

func normalizeSettings(s Settings) (Settings, error) {
	s.Name = strings.TrimSpace(s.Name)
	s.Address = strings.TrimSpace(s.Address)
	s.GSTIN = strings.ToUpper(strings.TrimSpace(s.GSTIN))
	s.PAN = strings.ToUpper(strings.TrimSpace(s.PAN))
	if s.Name == "" {
		return s, invalid("name is required")
	}
	if s.GSTIN != "" && !gstinPattern.MatchString(s.GSTIN) {
		return s, invalid("gstin is malformed")
	}
	if s.PAN != "" && !panPattern.MatchString(s.PAN) {
		return s, invalid("pan is malformed")
	}
	return s, nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidCompany, reason)
}
