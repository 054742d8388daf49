package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// crossFieldRule is a constraint spanning sections, which struct tags
// cannot express.
type crossFieldRule struct {
	broken  func(*Config) bool
	message string
}

var crossFieldRules = []crossFieldRule{
	{
		broken:  func(c *Config) bool { return c.Store.Driver == StoreDriverPostgres && c.Database.URL == "" },
		message: "database.url is required when store.driver is postgres",
	},
	{
		broken:  func(c *Config) bool { return c.Mail.Provider == MailProviderSMTP && c.SMTP.Host == "" },
		message: "smtp.host is required when mail.provider is smtp",
	},
	{
		broken: func(c *Config) bool {
			return c.Database.MaxConns > 0 && c.Database.MinConns > c.Database.MaxConns
		},
		message: "database.min_conns must not exceed database.max_conns",
	},
}

// tagMessages renders a failed tag. %[1]s is the field path, %[2]s the tag
// parameter.
var tagMessages = map[string]string{
	"required":    "%[1]s is required",
	"required_if": "%[1]s is required when %[2]s",
	"min":         "%[1]s must be at least %[2]s",
	"max":         "%[1]s must be at most %[2]s",
	"oneof":       "%[1]s must be one of: %[2]s",
	"url":         "%[1]s must be a valid URL",
}

// Validate checks the whole tree and reports every problem at once, so a
// bad deploy fails with the full list instead of one field per restart.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}

		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	for _, rule := range crossFieldRules {
		if rule.broken(c) {
			problems = append(problems, rule.message)
		}
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(problems, "\n  "))
}

func describe(fe validator.FieldError) string {
	path := fieldPath(fe.Namespace())

	if tmpl, ok := tagMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, path, fe.Param())
	}

	return fmt.Sprintf("%s failed validation: %s", path, fe.Tag())
}

// fieldPath turns "Config.Server.Port" into "server.port".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		rest = namespace
	}

	return strings.ToLower(rest)
}
