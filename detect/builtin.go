package detect

import "argus/core"

// BuiltinPatterns returns the fixed built-in detection rule set. The
// list is constructed fresh on each call so two registries never share
// pattern state.
func BuiltinPatterns() []*core.AnomalyPattern {
	return []*core.AnomalyPattern{
		{
			ID:          "multiple_failed_logins",
			Name:        "Multiple Failed Logins",
			Description: "Repeated failed login attempts from one source address",
			Severity:    core.SeverityHigh,
			Enabled:     true,
			Criteria: core.PatternCriteria{
				EventType:     core.EventLoginFailed,
				WindowMinutes: 15,
				Threshold:     5,
			},
		},
		{
			ID:          "rapid_password_resets",
			Name:        "Rapid Password Resets",
			Description: "Unusually frequent password resets from one source address",
			Severity:    core.SeverityMedium,
			Enabled:     true,
			Criteria: core.PatternCriteria{
				EventType:     core.EventPasswordReset,
				WindowMinutes: 60,
				Threshold:     3,
			},
		},
		{
			ID:          "suspicious_user_agent",
			Name:        "Suspicious User Agent",
			Description: "Client identifies itself as an automation tool",
			Severity:    core.SeverityMedium,
			Enabled:     true,
			Criteria: core.PatternCriteria{
				UserAgentPattern: "bot|crawler|spider|scraper|curl|wget",
			},
		},
		{
			ID:          "admin_endpoint_probing",
			Name:        "Admin Endpoint Probing",
			Description: "Repeated requests against administrative endpoints",
			Severity:    core.SeverityHigh,
			Enabled:     true,
			Criteria: core.PatternCriteria{
				EndpointPattern: "/admin|/api/admin",
				WindowMinutes:   10,
				Threshold:       10,
			},
		},
		{
			ID:          "rate_limit_abuse",
			Name:        "Rate Limit Abuse",
			Description: "Source keeps hitting rate limits",
			Severity:    core.SeverityHigh,
			Enabled:     true,
			Criteria: core.PatternCriteria{
				EventType:     core.EventRateLimitExceeded,
				WindowMinutes: 5,
				Threshold:     3,
			},
		},
		{
			ID:          "csrf_violation_detected",
			Name:        "CSRF Violation",
			Description: "Request failed CSRF validation",
			Severity:    core.SeverityCritical,
			Enabled:     true,
			Criteria: core.PatternCriteria{
				EventType: core.EventCSRFViolation,
			},
		},
		{
			ID:          "account_lockout_wave",
			Name:        "Account Lockout Wave",
			Description: "Multiple accounts locked from one source address",
			Severity:    core.SeverityHigh,
			Enabled:     true,
			Criteria: core.PatternCriteria{
				EventType:     core.EventAccountLocked,
				WindowMinutes: 30,
				Threshold:     3,
			},
		},
	}
}
