package config

import (
	"errors"
	"strings"

	"github.com/datastax/ormquery/log"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()

	uni := ut.New(en.New(), en.New())
	trans, _ = uni.GetTranslator("en")

	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	_ = validate.RegisterTranslation("oneof", trans, func(ut ut.Translator) error {
		return ut.Add("Settings.Platform", "{0} must be one of: "+PlatformNames, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("Settings.Platform", fe.Field())
		return t
	})
}

// Settings is the flat, file or flag driven form of the engine configuration
type Settings struct {
	Platform             string            `mapstructure:"platform" validate:"required,oneof=postgres mysql sqlite h2 oracle cassandra"`
	Features             []string          `mapstructure:"features"`
	EqualsWithNullAsNoop bool              `mapstructure:"equals-null-noop"`
	DefaultBatchSize     int               `mapstructure:"batch-size" validate:"min=1"`
	AsOfSysPeriod        string            `mapstructure:"sys-period" validate:"required"`
	HistoryTables        []string          `mapstructure:"history-tables"`
	HistoryViews         map[string]string `mapstructure:"history-views"`
	DraftTables          map[string]string `mapstructure:"draft-tables"`
}

func NewSettings() Settings {
	return Settings{
		Platform:         "postgres",
		DefaultBatchSize: DefaultBatchSize,
		AsOfSysPeriod:    DefaultAsOfSysPeriod,
	}
}

// EngineConfig validates the settings and builds the engine configuration
func (s Settings) EngineConfig(logger log.Logger) (*EngineConfig, error) {
	if err := validate.Struct(s); err != nil {
		return nil, translateValidatorError(err)
	}

	platform, err := PlatformByName(s.Platform)
	if err != nil {
		return nil, err
	}
	if err := platform.Features.Add(s.Features...); err != nil {
		return nil, err
	}

	return NewEngineConfigWithLogger(logger).
		WithPlatform(platform).
		WithEqualsWithNullAsNoop(s.EqualsWithNullAsNoop).
		WithDefaultBatchSize(s.DefaultBatchSize).
		WithAsOfSysPeriod(s.AsOfSysPeriod).
		WithHistoryTables(s.HistoryTables...).
		WithAsOfTableMapping(s.HistoryViews).
		WithDraftTableMapping(s.DraftTables), nil
}

// translateValidatorError flattens validator errors into one readable error
func translateValidatorError(err error) error {
	switch err.(type) {
	case validator.ValidationErrors:
		errs := (err.(validator.ValidationErrors)).Translate(trans)

		vals := make([]string, 0, len(errs))
		for _, value := range errs {
			vals = append(vals, value)
		}

		return errors.New(strings.Join(vals, " "))
	default:
		return err
	}
}
