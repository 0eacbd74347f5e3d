package config

// SMTPConfig configures the worker's outgoing mail.  Mail is disabled when
// SMTP_HOST is empty; the worker then only writes the booking log.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether a mail relay is configured.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

func LoadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     envStr("SMTP_HOST", ""),
		Port:     envInt("SMTP_PORT", 587),
		User:     envStr("SMTP_USER", ""),
		Password: envStr("SMTP_PASS", ""),
		From:     envStr("SMTP_FROM", "no-reply@rooms.local"),
	}
}
