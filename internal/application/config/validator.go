package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/doeshing/sqlchat/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validate.Struct(cfg); err != nil {
		return describe(err)
	}
	if cfg.Agent.Model != "" && !cfg.HasModel(cfg.Agent.Model) {
		return fmt.Errorf("agent model %s not found in models list", cfg.Agent.Model)
	}
	if err := validateAuth(cfg.Auth); err != nil {
		return err
	}
	if err := validateCatalog(cfg.Catalog); err != nil {
		return err
	}
	if err := validateSink(cfg.Sink); err != nil {
		return err
	}
	if err := validateSecurity(cfg.Security); err != nil {
		return err
	}
	return nil
}

func validateAuth(auth domain.AuthSettings) error {
	if auth.Driver != domain.AuthDriverCognito {
		return nil
	}
	if auth.ClientID == "" {
		return errors.New("auth.client_id must be set for the cognito driver")
	}
	return nil
}

func validateCatalog(catalog domain.CatalogSettings) error {
	switch catalog.Driver {
	case domain.CatalogDriverAthena:
		if catalog.Database == "" {
			return errors.New("catalog.database must be set for the athena driver")
		}
		if catalog.OutputLocation != "" && !strings.HasPrefix(catalog.OutputLocation, "s3://") {
			return fmt.Errorf("catalog.output_location must be an s3:// URI, got %s", catalog.OutputLocation)
		}
	case domain.CatalogDriverSQLite:
		if catalog.SQLitePath == "" {
			return errors.New("catalog.sqlite_path must be set for the sqlite driver")
		}
	}
	if catalog.PollInterval != "" {
		if _, err := time.ParseDuration(catalog.PollInterval); err != nil {
			return fmt.Errorf("catalog.poll_interval invalid: %w", err)
		}
	}
	return nil
}

func validateSink(sink domain.SinkSettings) error {
	if sink.Driver == domain.SinkDriverDynamoDB && sink.Table == "" {
		return errors.New("sink.table must be set for the dynamodb driver")
	}
	return nil
}

func validateSecurity(sec domain.SecuritySettings) error {
	if sec.Enabled && sec.RulesFile == "" {
		return errors.New("security.rules_file must be set")
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
